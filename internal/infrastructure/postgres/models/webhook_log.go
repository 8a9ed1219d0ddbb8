package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookLogStatus string

const (
	WebhookLogStatusReceived     WebhookLogStatus = "received"
	WebhookLogStatusHandled      WebhookLogStatus = "handled"
	WebhookLogStatusHandleFailed WebhookLogStatus = "handle_failed"
)

type WebhookLogModel struct {
	ID         string           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Gateway    string           `gorm:"column:gateway;type:varchar(32);not null" json:"gateway"`
	EventID    string           `gorm:"column:event_id;type:varchar(128);index" json:"event_id"`
	EventType  string           `gorm:"column:event_type;type:varchar(100);index" json:"event_type"`
	RoutingKey string           `gorm:"column:routing_key;type:varchar(128)" json:"routing_key"`
	Data       datatypes.JSON   `gorm:"column:data;type:jsonb" json:"data"`
	Error      string           `gorm:"column:error;type:text" json:"error"`
	Status     WebhookLogStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	Attempts   int              `gorm:"column:attempts;not null;default:0" json:"attempts"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (WebhookLogModel) TableName() string { return "webhook_logs" }
