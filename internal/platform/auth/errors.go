package auth

import "net/http"

// ErrorKind classifies a resolution failure. Each kind maps to exactly
// one HTTP status at the middleware boundary.
type ErrorKind int

const (
	// KindAuthentication: missing, malformed, expired, or badly signed token.
	KindAuthentication ErrorKind = iota
	// KindAuthorization: the token was valid but its account no longer exists.
	KindAuthorization
	// KindValidation: role, impersonation, or credential-completeness problems.
	KindValidation
	// KindConnection: the target database could not be reached.
	KindConnection
)

// Error is a tagged resolution failure. Handlers never see it; the
// database binding middleware converts it to an HTTP error response.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to its response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewError constructs a tagged resolution error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
