package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition carries a public wire code plus an operator-facing message.
// The code is the only thing a caller ever sees.
type Definition struct {
	Code    string
	Message string
}

// Input errors. The caller must fix and resubmit.
var (
	InvalidJSON      = Definition{Code: "invalid_json", Message: "Request body is not valid JSON"}
	MissingFields    = Definition{Code: "missing_fields", Message: "shareCode, phone and turnstileToken are required"}
	InvalidShareCode = Definition{Code: "invalid_share_code", Message: "Share code format invalid"}
	InvalidPhone     = Definition{Code: "invalid_phone", Message: "Phone number could not be normalized"}
)

// Trust and abuse errors. Intentionally opaque beyond the code.
var (
	TurnstileFailed = Definition{Code: "turnstile_failed", Message: "Human verification failed"}
	RateLimited     = Definition{Code: "rate_limited", Message: "Too many requests"}
)

// Domain errors.
var (
	QuestNotFound = Definition{Code: "quest_not_found", Message: "Quest not found or unavailable"}
)

// Availability errors. Operator problems, never user problems.
var (
	Misconfigured      = Definition{Code: "misconfigured", Message: "Service is misconfigured"}
	InternalError      = Definition{Code: "internal_error", Message: "Internal error"}
	ServiceUnavailable = Definition{Code: "service_unavailable", Message: "Service temporarily unavailable"}
)

// Lookup provides code based access to the definitions.
var Lookup = map[string]Definition{
	InvalidJSON.Code:        InvalidJSON,
	MissingFields.Code:      MissingFields,
	InvalidShareCode.Code:   InvalidShareCode,
	InvalidPhone.Code:       InvalidPhone,
	TurnstileFailed.Code:    TurnstileFailed,
	RateLimited.Code:        RateLimited,
	QuestNotFound.Code:      QuestNotFound,
	Misconfigured.Code:      Misconfigured,
	InternalError.Code:      InternalError,
	ServiceUnavailable.Code: ServiceUnavailable,
}

// Get returns the Definition for a code, or a generic one if unknown.
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// RateLimitedError is RateLimited plus retry guidance. It is the only error
// that carries detail back to the caller.
type RateLimitedError struct {
	RetryAfter int // seconds until the breached window resets, floored at 1
}

func (e *RateLimitedError) Error() string {
	return RateLimited.Message
}
