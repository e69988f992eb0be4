package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/csinmamit/membership/pkg/types"
)

// User is the membership subtree of a member record, keyed by identity subject id.
// Profile columns of the same table belong to the web application and are never
// written here.
type User struct {
	ID                  string     `gorm:"column:id;type:varchar(128);primary_key" json:"id"`
	Role                types.Role `gorm:"column:role;type:varchar(64);index" json:"role"`
	MembershipType      string     `gorm:"column:membership_type;type:varchar(128)" json:"membership_type"`
	MembershipStartDate *time.Time `gorm:"column:membership_start_date" json:"membership_start_date"`
	// MembershipEndDate is local midnight of the day the membership lapses.
	MembershipEndDate   *time.Time `gorm:"column:membership_end_date;index" json:"membership_end_date"`
	MembershipExpired   bool       `gorm:"column:membership_expired" json:"membership_expired"`
	MembershipExpiredAt *time.Time `gorm:"column:membership_expired_at" json:"membership_expired_at"`
	// PaymentDetails snapshots the payment that granted the current membership.
	PaymentDetails datatypes.JSONType[*PaymentDetails] `gorm:"column:payment_details;type:jsonb" json:"payment_details"`
	CreatedAt      time.Time                           `json:"created_at"`
	UpdatedAt      time.Time                           `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// ActiveAt reports whether the user holds an executive membership at now.
// Admins keep their role when they buy a membership, so only the dates decide for them.
func (u *User) ActiveAt(now time.Time) bool {
	return u != nil &&
		(u.Role == types.RoleExecutiveMember || u.Role == types.RoleAdmin) &&
		!u.MembershipExpired &&
		u.MembershipEndDate != nil &&
		now.Before(*u.MembershipEndDate)
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == types.RoleAdmin
}

type PaymentDetails struct {
	OrderID     string              `json:"orderId"`
	PaymentID   string              `json:"paymentId"`
	AmountBase  int64               `json:"amount"`
	PlatformFee int64               `json:"platformFee"`
	AmountTotal int64               `json:"totalAmount"`
	Currency    string              `json:"currency"`
	PaymentDate time.Time           `json:"paymentDate"`
	Source      types.PaymentSource `json:"source"`
}
