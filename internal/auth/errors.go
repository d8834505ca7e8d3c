package auth

import "net/http"

// Failure kinds reported by the verifier.
const (
	KindInvalidHeader = "invalid_header"
	KindInvalidClaims = "invalid_claims"
	KindTokenExpired  = "token_expired"
	KindUnauthorized  = "unauthorized"
)

// Error describes why a bearer token was rejected. It carries the HTTP status the
// caller should answer with.
type Error struct {
	Code        string
	Description string
	StatusCode  int
	cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Description
}

// Unwrap exposes the underlying parser error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the failure kind.
func (e *Error) Kind() string { return e.Code }

// Describe returns the human readable description.
func (e *Error) Describe() string { return e.Description }

// Status returns the HTTP status code.
func (e *Error) Status() int { return e.StatusCode }

func newError(kind, description string, status int, cause error) *Error {
	return &Error{
		Code:        kind,
		Description: description,
		StatusCode:  status,
		cause:       cause,
	}
}

func errHeaderMissing() *Error {
	return newError(KindInvalidHeader, "Authorization header is expected.", http.StatusUnauthorized, nil)
}

func errHeaderNotBearer() *Error {
	return newError(KindInvalidHeader, `Authorization header must start with "Bearer".`, http.StatusUnauthorized, nil)
}

func errTokenMissing() *Error {
	return newError(KindInvalidHeader, "Token not found.", http.StatusUnauthorized, nil)
}

func errHeaderTooLong() *Error {
	return newError(KindInvalidHeader, "Authorization header must be bearer token.", http.StatusUnauthorized, nil)
}

func errMalformed(cause error) *Error {
	return newError(KindInvalidHeader, "Authorization malformed.", http.StatusUnauthorized, cause)
}

func errKeyNotFound(cause error) *Error {
	return newError(KindInvalidHeader, "Unable to find the appropriate key.", http.StatusUnauthorized, cause)
}

func errUnparseable(cause error) *Error {
	return newError(KindInvalidHeader, "Unable to parse authentication token.", http.StatusBadRequest, cause)
}

func errExpired(cause error) *Error {
	return newError(KindTokenExpired, "Token expired.", http.StatusUnauthorized, cause)
}

func errIncorrectClaims(cause error) *Error {
	return newError(KindInvalidClaims, "Incorrect claims. Please, check the audience and issuer.", http.StatusUnauthorized, cause)
}

func errPermissionsMissing() *Error {
	return newError(KindInvalidClaims, "Permissions not included in JWT.", http.StatusBadRequest, nil)
}

func errPermissionDenied() *Error {
	return newError(KindUnauthorized, "Permission not found.", http.StatusForbidden, nil)
}
