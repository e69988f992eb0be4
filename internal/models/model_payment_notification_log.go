package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/csinmamit/membership/pkg/types"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationLog is the audit trail of every verification attempt and
// webhook delivery.
type PaymentNotificationLog struct {
	ID               string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider         types.PaymentProvider        `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	Source           types.PaymentSource          `gorm:"column:source;type:varchar(32);not null" json:"source"`
	Event            string                       `gorm:"column:event;type:varchar(64)" json:"event"`
	UserID           *string                      `gorm:"column:user_id;type:varchar(128)" json:"user_id"`
	TraceID          string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OrderID          string                       `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	PaymentID        string                       `gorm:"column:payment_id;type:varchar(64);index" json:"payment_id"`
	NotificationTime time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data             datatypes.JSON               `gorm:"column:data;type:jsonb" json:"data"`
	Result           *datatypes.JSON              `gorm:"column:result;type:jsonb" json:"result"`
	Status           PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
