package directory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// Sentinel errors for directory operation failures. These provide a stable
// surface for error classification via errors.Is.
var (
	// ErrUserNotFound is returned when no entry matches a user lookup.
	ErrUserNotFound = errors.New("directory: user not found")

	// ErrInvalidCredentials is returned when a bind probe is rejected by
	// the server.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")

	// ErrUnavailable is returned when the directory server cannot be
	// reached or does not answer within the configured timeouts.
	ErrUnavailable = errors.New("directory: server unavailable")
)

// Error carries the operation context of a failed directory call.
// It wraps the underlying go-ldap error so callers can still use errors.Is
// against both the sentinels above and ldap result codes.
type Error struct {
	// Op is the operation name (e.g. "FindUserBySAMAccountName").
	Op string
	// Server is the directory server URL.
	Server string
	// DN is the distinguished name involved, if any.
	DN string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.DN != "" {
		return fmt.Sprintf("directory %s failed for DN %q on %q: %v", e.Op, e.DN, e.Server, e.Err)
	}
	return fmt.Sprintf("directory %s failed on %q: %v", e.Op, e.Server, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDN adds a distinguished name to the error context.
func (e *Error) WithDN(dn string) *Error {
	e.DN = dn
	return e
}

// wrapError classifies err against the go-ldap result codes relevant to
// this service and attaches operation context. Bad credentials map to
// ErrInvalidCredentials, transport failures to ErrUnavailable; everything
// else is kept as-is under the operation wrapper.
func wrapError(op, server string, err error) *Error {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		err = fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	} else if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Error{Op: op, Server: server, Err: err}
}

// isBenignSearchError reports whether err is one of the directory
// conditions that must be treated as an empty result rather than a
// failure: the searched subtree does not exist, or the server returned a
// partial result set while chasing referrals.
func isBenignSearchError(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultReferral) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultMoreResultsToReturn)
}
