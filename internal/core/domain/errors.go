package domain

import "errors"

// ErrorKind is the closed set of failures a use case can report
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindAccountDisabled    ErrorKind = "account_disabled"
	KindInactiveAccount    ErrorKind = "inactive_account"
	KindEmailInUse         ErrorKind = "email_in_use"
	KindForbidden          ErrorKind = "forbidden"
	KindInvalidRole        ErrorKind = "invalid_role"
	KindInvalidTransition  ErrorKind = "invalid_transition"
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindNotFound           ErrorKind = "not_found"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindInternal           ErrorKind = "internal"
)

// Error is a typed use-case failure. Message is safe to show to callers;
// Err is the internal cause and must never cross the API boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels, one per kind
var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Incorrect email or password"}
	ErrAccountDisabled    = &Error{Kind: KindAccountDisabled, Message: "User account is disabled"}
	ErrInactiveAccount    = &Error{Kind: KindInactiveAccount, Message: "Inactive user"}
	ErrEmailInUse         = &Error{Kind: KindEmailInUse, Message: "Email already registered"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "Insufficient permissions"}
	ErrInvalidRole        = &Error{Kind: KindInvalidRole, Message: "Invalid role"}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition, Message: "Only regular users can upgrade to donor status"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "Could not validate credentials"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput, Message: "Invalid input"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "Internal server error"}
)

// NewError builds an error of the given kind with a caller-safe message
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Internal wraps a storage or infrastructure failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for anything untyped
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// SafeMessage returns the caller-facing message for err
func SafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return ErrInternal.Message
}
