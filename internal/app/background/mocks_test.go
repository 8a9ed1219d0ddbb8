package background

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/models"
	stripeapi "github.com/stripe/stripe-go/v74"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockNormalizer struct {
	Events []domain.PaymentEvent
	Err    error
}

func (m *MockNormalizer) Normalize(ctx context.Context, event *stripeapi.Event) ([]domain.PaymentEvent, error) {
	return m.Events, m.Err
}

type MockReconciler struct {
	mu        sync.Mutex
	Processed []domain.PaymentEvent
	Closed    []domain.PaymentEvent
	Err       error
}

func (m *MockReconciler) ProcessPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Processed = append(m.Processed, event)
	return m.Err
}

func (m *MockReconciler) CloseRecurringDonation(ctx context.Context, event domain.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = append(m.Closed, event)
	return m.Err
}

type MockWebhookLogger struct {
	Received []logger.WebhookReceived
	Statuses map[string]models.WebhookLogStatus
}

func NewMockWebhookLogger() *MockWebhookLogger {
	return &MockWebhookLogger{Statuses: make(map[string]models.WebhookLogStatus)}
}

func (m *MockWebhookLogger) LogReceived(ctx context.Context, event logger.WebhookReceived) (string, error) {
	m.Received = append(m.Received, event)
	id := event.EventID
	m.Statuses[id] = models.WebhookLogStatusReceived
	return id, nil
}

func (m *MockWebhookLogger) LogHandled(ctx context.Context, id string) error {
	m.Statuses[id] = models.WebhookLogStatusHandled
	return nil
}

func (m *MockWebhookLogger) LogHandleFailed(ctx context.Context, id string, cause error) error {
	m.Statuses[id] = models.WebhookLogStatusHandleFailed
	return nil
}

func (m *MockWebhookLogger) Get(ctx context.Context, id string) (*models.WebhookLogModel, error) {
	return &models.WebhookLogModel{ID: id, Status: m.Statuses[id]}, nil
}
