package shared

// DomainError is the structured error every domain operation returns. The
// Code is a stable machine-readable identifier the transport layer maps to
// an HTTP status; the Message is safe to show to callers.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports code equality, so errors.Is matches any DomainError carrying
// the same code, not just the sentinel instance.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a domain error with the given code and message
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinel errors for the failure kinds shared across aggregates. Operations
// either return these directly or a NewDomainError with a more specific code.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrDependencyFailure   = NewDomainError("DEPENDENCY_FAILURE", "An external dependency failed")
)
