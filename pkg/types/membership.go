package types

type MembershipPlan struct {
	Years int `json:"years" mapstructure:"years"`
	// BasePrice is the plan price in major currency units, before the platform fee.
	BasePrice int64 `json:"base_price" mapstructure:"base_price"`
}

type Role string

const (
	RoleExecutiveMember Role = "EXECUTIVE MEMBER"
	RoleUser            Role = "User"
	RoleAdmin           Role = "admin"
)

// PaymentSource identifies which entry point applied a payment.
type PaymentSource string

const (
	PaymentSourceVerify  PaymentSource = "verify-payment"
	PaymentSourceWebhook PaymentSource = "webhook"
)

type PaymentProvider string

const (
	PaymentProviderRazorpay PaymentProvider = "razorpay"
)

type MembershipChangeReason string

const (
	MembershipChangeReasonPurchase MembershipChangeReason = "purchase"
	MembershipChangeReasonExpired  MembershipChangeReason = "expired"
)
