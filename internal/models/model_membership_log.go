package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/csinmamit/membership/pkg/types"
)

// MembershipLog records changes to a user's membership.
// Use case: troubleshooting and manual reconciliation.
type MembershipLog struct {
	ID        string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string                       `gorm:"column:user_id;type:varchar(128);index:idx_membership_log_user_id;not null" json:"user_id"`
	Reason    types.MembershipChangeReason `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	PaymentID *string                      `gorm:"column:payment_id;type:varchar(64)" json:"payment_id"`
	Before    datatypes.JSONType[*User]    `gorm:"column:before;type:jsonb" json:"before"`
	After     datatypes.JSONType[*User]    `gorm:"column:after;type:jsonb" json:"after"`
	// Extra stores trigger context such as the entry point and trace id.
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb" json:"extra"`
	CreatedAt time.Time         `json:"created_at"`
}

func (MembershipLog) TableName() string {
	return "membership_log"
}
