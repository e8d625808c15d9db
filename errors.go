package portal

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrTokenMalformed is returned for tokens that fail the structural check
// (segment count, payload decoding). The session store is cleared as a side
// effect so garbage tokens never linger.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when the embedded expiry claim is at or before
// the current wall-clock time.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionUnverified marks a session whose cached user has not completed
// email/phone verification. Mirrors the server-side policy: such accounts are
// never treated as authenticated in the UI.
var ErrSessionUnverified = goerrors.New("account has not completed verification", goerrors.CategoryAuth).
	WithTextCode("SESSION_UNVERIFIED").
	WithCode(goerrors.CodeForbidden)

// ErrAuthRevoked is returned when the backend signals a revoked session,
// currently a 403 whose body asks the user to verify their email.
var ErrAuthRevoked = goerrors.New("session authority revoked by server", goerrors.CategoryAuth).
	WithTextCode("AUTH_REVOKED").
	WithCode(goerrors.CodeForbidden)

// ErrUnauthorized maps a 401 API response.
var ErrUnauthorized = goerrors.New("request was not authorized", goerrors.CategoryAuth).
	WithTextCode("UNAUTHORIZED").
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden maps a 403 API response without the verification marker.
var ErrForbidden = goerrors.New("request was forbidden", goerrors.CategoryAuthz).
	WithTextCode("FORBIDDEN").
	WithCode(goerrors.CodeForbidden)

// ErrValidationFailed maps a 4xx API response with a field-shaped error body.
var ErrValidationFailed = goerrors.New("request failed validation", goerrors.CategoryValidation).
	WithTextCode("VALIDATION_FAILED").
	WithCode(goerrors.CodeBadRequest)

// ErrNetworkFailure covers transport errors and client-side timeouts; callers
// surface it as a generic "check your connection" message.
var ErrNetworkFailure = goerrors.New("network request failed", goerrors.CategoryOperation).
	WithTextCode("NETWORK_FAILURE").
	WithCode(goerrors.CodeInternal)

// ErrServerFailure maps 5xx responses and unrecognized bodies.
var ErrServerFailure = goerrors.New("server returned an unexpected error", goerrors.CategoryInternal).
	WithTextCode("SERVER_FAILURE").
	WithCode(goerrors.CodeInternal)

// ErrNotPending guards approve/reject actions: only pending requests expose
// them.
var ErrNotPending = goerrors.New("request is not pending", goerrors.CategoryConflict).
	WithTextCode("NOT_PENDING").
	WithCode(goerrors.CodeConflict)

// ErrSystemRoleImmutable guards edits/deletes of system roles in the UI.
var ErrSystemRoleImmutable = goerrors.New("system roles cannot be modified", goerrors.CategoryConflict).
	WithTextCode("SYSTEM_ROLE_IMMUTABLE").
	WithCode(goerrors.CodeConflict)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for structurally invalid tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed")
}

// IsNetworkError reports whether err came from the transport rather than the
// backend.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == ErrNetworkFailure.TextCode
	}
	return false
}

// IsAuthRevokedError reports whether err is the verification-specific 403 the
// response interceptor converts into a forced logout.
func IsAuthRevokedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == ErrAuthRevoked.TextCode
	}
	return false
}

// MessageFromError extracts the human-readable message the backend attached to
// an API failure, falling back when the body carried none. Auth actions use it
// to build their normalized results.
func MessageFromError(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if msg, ok := richErr.Metadata["api_message"].(string); ok && msg != "" {
			return msg
		}
	}
	return fallback
}
