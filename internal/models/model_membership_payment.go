package models

import (
	"time"

	"github.com/csinmamit/membership/pkg/types"
)

// MembershipPayment is the processed-payment marker. A row exists iff the
// payment has been applied to a membership; it is inserted once and never updated.
type MembershipPayment struct {
	PaymentID     string              `gorm:"column:payment_id;type:varchar(64);primary_key" json:"payment_id"`
	OrderID       string              `gorm:"column:order_id;type:varchar(64);index;not null" json:"order_id"`
	UserID        string              `gorm:"column:user_id;type:varchar(128);index;not null" json:"user_id"`
	SelectedYears int                 `gorm:"column:selected_years;not null" json:"selected_years"`
	AmountBase    int64               `gorm:"column:amount_base;not null" json:"amount_base"`
	PlatformFee   int64               `gorm:"column:platform_fee;not null" json:"platform_fee"`
	AmountTotal   int64               `gorm:"column:amount_total;not null" json:"amount_total"`
	Currency      string              `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Source        types.PaymentSource `gorm:"column:source;type:varchar(32);not null" json:"source"`
	ProcessedAt   time.Time           `gorm:"column:processed_at;index;not null" json:"processed_at"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (MembershipPayment) TableName() string {
	return "membership_payment"
}
