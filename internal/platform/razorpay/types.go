package razorpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	PaymentStatusCaptured = "captured"

	EventPaymentCaptured = "payment.captured"
)

// Notes is the gateway's free-form metadata map. The API returns an empty
// JSON array instead of an object when no notes were set, and may echo
// numbers back as numbers.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || data[0] == '[' {
		*n = Notes{}
		return nil
	}
	raw := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode notes: %w", err)
	}
	out := make(Notes, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, _ := json.Marshal(t)
			out[k] = string(b)
		}
	}
	*n = out
	return nil
}

type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Notes      Notes  `json:"notes"`
	CreatedAt  int64  `json:"created_at"`
}

type Payment struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Captured  bool   `json:"captured"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	Notes     Notes  `json:"notes"`
	CreatedAt int64  `json:"created_at"`
}

func (p *Payment) IsCaptured() bool {
	return p != nil && p.Status == PaymentStatusCaptured
}

type OrderRequest struct {
	// Amount is in minor currency units.
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Notes keys written at order creation and trusted at verification time.
const (
	NoteUserID        = "userId"
	NoteSelectedYears = "selectedYears"
	NoteBaseAmount    = "baseAmount"
	NotePlatformFee   = "platformFee"
	NoteUserEmail     = "userEmail"
	NoteUserName      = "userName"
	NoteUserUsn       = "userUsn"
)

// OrderContext is who pays for what, as embedded in an order's notes.
type OrderContext struct {
	UserID        string
	SelectedYears int
	BaseAmount    int64
	PlatformFee   int64
	UserEmail     string
	UserName      string
	UserUsn       string
}

func (c OrderContext) Notes() map[string]string {
	notes := map[string]string{
		NoteUserID:        c.UserID,
		NoteSelectedYears: strconv.Itoa(c.SelectedYears),
		NoteBaseAmount:    strconv.FormatInt(c.BaseAmount, 10),
		NotePlatformFee:   strconv.FormatInt(c.PlatformFee, 10),
	}
	for k, v := range map[string]string{NoteUserEmail: c.UserEmail, NoteUserName: c.UserName, NoteUserUsn: c.UserUsn} {
		if v != "" {
			notes[k] = v
		}
	}
	return notes
}

// ErrNoOrderContext is returned by ParseOrderContext when the notes do not
// identify a subject and plan.
var ErrNoOrderContext = fmt.Errorf("order notes carry no membership context")

func ParseOrderContext(notes Notes) (*OrderContext, error) {
	userID := strings.TrimSpace(notes[NoteUserID])
	if userID == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrNoOrderContext, NoteUserID)
	}
	years, err := strconv.Atoi(strings.TrimSpace(notes[NoteSelectedYears]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad %s %q", ErrNoOrderContext, NoteSelectedYears, notes[NoteSelectedYears])
	}
	c := &OrderContext{
		UserID:        userID,
		SelectedYears: years,
		UserEmail:     notes[NoteUserEmail],
		UserName:      notes[NoteUserName],
		UserUsn:       notes[NoteUserUsn],
	}
	// Informational only; the price is always recomputed from the plan.
	c.BaseAmount, _ = strconv.ParseInt(notes[NoteBaseAmount], 10, 64)
	c.PlatformFee, _ = strconv.ParseInt(notes[NotePlatformFee], 10, 64)
	return c, nil
}
