package domain

import "errors"

// Error taxonomy shared by every gateway. Gateways wrap these with context and
// callers classify with errors.Is.
var (
	// ErrConfigurationMissing means no API key or endpoint URL was configured.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrRemoteUnavailable covers non-2xx responses, timeouts and network errors.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrMalformedResponse means a 2xx response could not be parsed or lacked required fields.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnknownLocation means a location key matched no district and could not be geocoded.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrValidation marks caller-supplied input that must be corrected by the user.
	ErrValidation = errors.New("validation error")

	// ErrSuperseded means a newer request for the same surface replaced this one.
	ErrSuperseded = errors.New("request superseded")
)

// ValidationError carries a user-correctable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsAbsorbable reports whether err belongs to the classes that are converted
// into a fallback result instead of being surfaced to the UI.
func IsAbsorbable(err error) bool {
	return errors.Is(err, ErrConfigurationMissing) ||
		errors.Is(err, ErrRemoteUnavailable) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrUnknownLocation)
}
