package response

// APIResponseCode is the business code carried by the admin envelope.
type APIResponseCode int

const (
	APIResponseCodeOK           APIResponseCode = 0
	APIResponseCodeBadRequest   APIResponseCode = 40000
	APIResponseCodeUnauthorized APIResponseCode = 40100
	APIResponseCodeForbidden    APIResponseCode = 40300
	APIResponseCodeError        APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:           "ok",
	APIResponseCodeBadRequest:   "bad request",
	APIResponseCodeUnauthorized: "unauthorized",
	APIResponseCodeForbidden:    "forbidden",
	APIResponseCodeError:        "internal error",
}

// APIResponse is the envelope used by the admin APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// ErrorBody is the flat error object returned by the payment endpoints.
type ErrorBody struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Error(err, message string) *ErrorBody {
	return &ErrorBody{Error: err, Message: message}
}

func InvalidInput(details []FieldError) *ErrorBody {
	return &ErrorBody{Error: "Invalid input", Details: details}
}

// VerifyResult is the body of the synchronous verification endpoint.
type VerifyResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	PaymentID         string `json:"paymentId,omitempty"`
	OrderID           string `json:"orderId,omitempty"`
	AlreadyProcessed  bool   `json:"alreadyProcessed,omitempty"`
	MembershipPending bool   `json:"membershipPending,omitempty"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
