package metadata

import (
	"context"
	"testing"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

func source(kind, id string, md map[string]string) domain.MetadataSource {
	return domain.MetadataSource{Kind: kind, ID: id, Metadata: md}
}

func TestResolve_KeysThenSources(t *testing.T) {
	tests := []struct {
		name    string
		sources []domain.MetadataSource
		keys    []string
		want    string
		wantOK  bool
	}{
		{
			name: "first key beats an earlier source holding only the second key",
			sources: []domain.MetadataSource{
				source(domain.SourceCharge, "ch_1", map[string]string{"Designation Code": "charge-code"}),
				source(domain.SourceCustomer, "cus_1", map[string]string{"sf_campaign": "cust-code"}),
			},
			keys:   []string{"sf_campaign", "Designation Code"},
			want:   "cust-code",
			wantOK: true,
		},
		{
			name: "earlier source wins for the same key",
			sources: []domain.MetadataSource{
				source(domain.SourceCharge, "ch_1", map[string]string{"sf_campaign": "from-charge"}),
				source(domain.SourceSubscription, "sub_1", map[string]string{"sf_campaign": "from-sub"}),
			},
			keys:   []string{"sf_campaign"},
			want:   "from-charge",
			wantOK: true,
		},
		{
			name: "blank values are skipped",
			sources: []domain.MetadataSource{
				source(domain.SourceCharge, "ch_1", map[string]string{"sf_campaign": "   "}),
				source(domain.SourceCustomer, "cus_1", map[string]string{"sf_campaign": "camp_2"}),
			},
			keys:   []string{"sf_campaign"},
			want:   "camp_2",
			wantOK: true,
		},
		{
			name: "raw context trumps gateway objects",
			sources: []domain.MetadataSource{
				source(domain.SourceCharge, "ch_1", map[string]string{"sf_campaign": "from-charge"}),
				source(domain.SourceRaw, "", map[string]string{"sf_campaign": "from-raw"}),
			},
			keys:   []string{"sf_campaign"},
			want:   "from-raw",
			wantOK: true,
		},
		{
			name: "value is sanitized",
			sources: []domain.MetadataSource{
				source(domain.SourceCharge, "ch_1", map[string]string{"sf_campaign": " 701 Ab-c_d!\t"}),
			},
			keys:   []string{"sf_campaign"},
			want:   "701Ab-c_d",
			wantOK: true,
		},
		{
			name: "value made only of unsafe characters is absent",
			sources: []domain.MetadataSource{
				source(domain.SourceCharge, "ch_1", map[string]string{"sf_campaign": "!!!"}),
				source(domain.SourceCustomer, "cus_1", map[string]string{"sf_campaign": "camp_2"}),
			},
			keys:   []string{"sf_campaign"},
			wantOK: false,
		},
		{
			name:    "nothing found",
			sources: []domain.MetadataSource{source(domain.SourceCustomer, "cus_1", nil)},
			keys:    []string{"sf_campaign", "Designation Code"},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(NewMockGateway(), nil, nil)

			got, ok := r.Resolve(context.Background(), tt.sources, tt.keys)

			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (value %q)", tt.wantOK, ok, got)
			}
			if ok && got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolve_PaymentIntentBackfill(t *testing.T) {
	t.Run("Given a charge referencing an unsupplied intent When resolving Then the intent is fetched once", func(t *testing.T) {
		// Given
		gw := NewMockGateway()
		gw.Intents["pi_1"] = &domain.MetadataSource{
			Kind:     domain.SourcePaymentIntent,
			ID:       "pi_1",
			Metadata: map[string]string{"Designation Code": "from-intent"},
		}
		charge := domain.MetadataSource{Kind: domain.SourceCharge, ID: "ch_1", PaymentIntentID: "pi_1"}
		r := NewResolver(gw, nil, nil)

		// When
		got, ok := r.Resolve(context.Background(), []domain.MetadataSource{charge}, []string{"sf_campaign", "Designation Code"})

		// Then
		if !ok || got != "from-intent" {
			t.Fatalf("expected from-intent, got %q (ok=%v)", got, ok)
		}
		if len(gw.Requests) != 1 {
			t.Errorf("expected 1 intent fetch, got %d", len(gw.Requests))
		}
	})

	t.Run("Given the intent was supplied When resolving Then no fetch is made", func(t *testing.T) {
		// Given
		gw := NewMockGateway()
		charge := domain.MetadataSource{Kind: domain.SourceCharge, ID: "ch_1", PaymentIntentID: "pi_1"}
		intent := source(domain.SourcePaymentIntent, "pi_1", map[string]string{"sf_campaign": "supplied"})
		r := NewResolver(gw, nil, nil)

		// When
		got, ok := r.Resolve(context.Background(), []domain.MetadataSource{charge, intent}, []string{"sf_campaign"})

		// Then
		if !ok || got != "supplied" {
			t.Fatalf("expected supplied, got %q (ok=%v)", got, ok)
		}
		if len(gw.Requests) != 0 {
			t.Errorf("expected no intent fetch, got %v", gw.Requests)
		}
	})

	t.Run("Given the gateway fails When resolving Then the charge is treated as not found", func(t *testing.T) {
		// Given
		gw := NewMockGateway()
		gw.Fail = true
		charge := domain.MetadataSource{Kind: domain.SourceCharge, ID: "ch_1", PaymentIntentID: "pi_1"}
		customer := source(domain.SourceCustomer, "cus_1", map[string]string{"sf_campaign": "from-customer"})
		r := NewResolver(gw, nil, nil)

		// When
		got, ok := r.Resolve(context.Background(), []domain.MetadataSource{charge, customer}, []string{"sf_campaign", "other"})

		// Then
		if !ok || got != "from-customer" {
			t.Fatalf("expected from-customer, got %q (ok=%v)", got, ok)
		}
		if len(gw.Requests) != 1 {
			t.Errorf("expected the failed fetch to be attempted once, got %d", len(gw.Requests))
		}
	})
}
