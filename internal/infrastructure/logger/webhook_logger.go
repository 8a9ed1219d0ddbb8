package logger

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WebhookReceived struct {
	Gateway    string
	EventID    string
	EventType  string
	RoutingKey string
	Payload    []byte
}

// WebhookLogger keeps a durable trail of gateway notifications so failed ones can
// be inspected and replayed.
type WebhookLogger interface {
	LogReceived(ctx context.Context, event WebhookReceived) (string, error)
	LogHandled(ctx context.Context, id string) error
	LogHandleFailed(ctx context.Context, id string, cause error) error
	Get(ctx context.Context, id string) (*models.WebhookLogModel, error)
}

type PGWebhookLogger struct {
	db *gorm.DB
}

func NewPGWebhookLogger(db *gorm.DB) *PGWebhookLogger {
	return &PGWebhookLogger{db: db}
}

func (l *PGWebhookLogger) LogReceived(ctx context.Context, event WebhookReceived) (string, error) {
	entry := models.WebhookLogModel{
		ID:         uuid.New().String(),
		Gateway:    event.Gateway,
		EventID:    event.EventID,
		EventType:  event.EventType,
		RoutingKey: event.RoutingKey,
		Data:       datatypes.JSON(event.Payload),
		Status:     models.WebhookLogStatusReceived,
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (l *PGWebhookLogger) LogHandled(ctx context.Context, id string) error {
	return l.setStatus(ctx, id, models.WebhookLogStatusHandled, "")
}

func (l *PGWebhookLogger) LogHandleFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return l.setStatus(ctx, id, models.WebhookLogStatusHandleFailed, msg)
}

func (l *PGWebhookLogger) Get(ctx context.Context, id string) (*models.WebhookLogModel, error) {
	var entry models.WebhookLogModel
	if err := l.db.WithContext(ctx).Where("id = ?", id).Take(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (l *PGWebhookLogger) setStatus(ctx context.Context, id string, status models.WebhookLogStatus, errMsg string) error {
	return l.db.WithContext(ctx).
		Model(&models.WebhookLogModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"error":      errMsg,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error
}
