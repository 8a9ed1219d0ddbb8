package metadata

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Resolver looks up a metadata value across the objects attached to a payment event.
type Resolver struct {
	Gateway domain.GatewayClient
	Metrics *metrics.ReconcilerMetrics
	Logger  *slog.Logger
}

func NewResolver(gateway domain.GatewayClient, m *metrics.ReconcilerMetrics, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Gateway: gateway,
		Metrics: m,
		Logger:  logger,
	}
}

// Resolve scans keys in order and, for each key, the sources in precedence order.
// The first non-blank value wins. Raw context sources always come first. A charge
// that references a payment intent not present in sources gets that intent fetched
// once per call. The returned value is stripped to [A-Za-z0-9_-]; ok is false when
// nothing was found or the value sanitizes to empty.
func (r *Resolver) Resolve(ctx context.Context, sources []domain.MetadataSource, keys []string) (string, bool) {
	ordered := rawFirst(sources)
	supplied := make(map[string]bool)
	for _, s := range ordered {
		if s.Kind == domain.SourcePaymentIntent {
			supplied[s.ID] = true
		}
	}

	fetched := make(map[string]*domain.MetadataSource)
	for _, key := range keys {
		for _, src := range ordered {
			if v := lookup(src.Metadata, key); v != "" {
				return sanitize(v)
			}
			if src.PaymentIntentID == "" || supplied[src.PaymentIntentID] {
				continue
			}
			intent := r.backfill(ctx, src.PaymentIntentID, fetched)
			if intent == nil {
				continue
			}
			if v := lookup(intent.Metadata, key); v != "" {
				return sanitize(v)
			}
		}
	}
	return "", false
}

func (r *Resolver) backfill(ctx context.Context, intentID string, fetched map[string]*domain.MetadataSource) *domain.MetadataSource {
	if intent, done := fetched[intentID]; done {
		return intent
	}
	if r.Gateway == nil {
		fetched[intentID] = nil
		return nil
	}

	intent, err := r.Gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		r.Logger.Warn("payment intent backfill failed", "payment_intent_id", intentID, "error", err)
		intent = nil
	}
	r.Metrics.RecordMetadataBackfill(intent != nil)
	fetched[intentID] = intent
	return intent
}

func rawFirst(sources []domain.MetadataSource) []domain.MetadataSource {
	ordered := make([]domain.MetadataSource, 0, len(sources))
	for _, s := range sources {
		if s.Kind == domain.SourceRaw {
			ordered = append(ordered, s)
		}
	}
	for _, s := range sources {
		if s.Kind != domain.SourceRaw {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

func lookup(md map[string]string, key string) string {
	if md == nil {
		return ""
	}
	return strings.TrimSpace(md[key])
}

func sanitize(v string) (string, bool) {
	clean := unsafeChars.ReplaceAllString(v, "")
	return clean, clean != ""
}
