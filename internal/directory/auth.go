package directory

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"
)

// Authentication result messages. The orchestrator picks exactly one per
// attempt, per the verdict table in Authenticate.
const (
	msgInvalidCredentials = "invalid credentials"
	msgAllowed            = "authentication successful and user belongs to required group"
	msgForbidden          = "user authenticated but not a member of required group"
)

// AuthResult is the composite outcome of one authentication attempt.
// It is assembled once and never mutated after being returned.
type AuthResult struct {
	Authenticated    bool     `json:"authenticated"`
	Username         string   `json:"username"`
	User             *User    `json:"user,omitempty"`
	HasRequiredGroup bool     `json:"hasRequiredGroup"`
	AccountEnabled   bool     `json:"accountEnabled"`
	AccountLocked    bool     `json:"accountLocked"`
	UserGroups       []string `json:"userGroups"`
	Message          string   `json:"message"`
}

// Authenticate performs a single authentication attempt: a bind probe
// with the supplied credentials, followed on success by enrichment with
// the user record, account-state flags and the required-group check.
//
// A failed bind is a verdict, not an error: the result simply reports
// not authenticated. A successful bind for a principal with no
// searchable user record still reports authenticated — directories where
// the bind principal and the searchable entry diverge make this a real
// case, and it is deliberately not hidden.
//
// A non-nil error means no verdict was reached: the bind succeeded but
// the enrichment lookups failed for a reason other than a missing
// record. Callers must not read an error as a membership denial.
func (c *Client) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	start := time.Now()
	result := AuthResult{Username: username, UserGroups: []string{}}

	conn, err := c.connectAs(ctx, username, password)
	if err != nil {
		// An unreachable server is not a credential verdict.
		if errors.Is(err, ErrUnavailable) {
			return result, err
		}
		c.logger.Info("authentication_rejected",
			slog.String("username", maskSensitive(username)),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		result.Message = msgInvalidCredentials
		return result, nil
	}
	// The probe connection is only ever used for the bind itself.
	_ = conn.Close()

	result.Authenticated = true

	user, err := c.FindUserBySAMAccountNameContext(ctx, username)
	switch {
	case err == nil:
		result.User = user
		result.AccountEnabled = user.Enabled()
		result.AccountLocked = user.Locked()
	case errors.Is(err, ErrUserNotFound):
		c.logger.Warn("authentication_user_record_missing",
			slog.String("username", maskSensitive(username)))
	default:
		c.logger.Error("authentication_enrichment_failed",
			slog.String("username", maskSensitive(username)),
			slog.String("error", err.Error()))
		return result, err
	}

	groups, err := c.UserGroupsContext(ctx, username)
	if err != nil {
		c.logger.Error("authentication_group_lookup_failed",
			slog.String("username", maskSensitive(username)),
			slog.String("error", err.Error()))
		return result, err
	}
	result.UserGroups = groups
	result.HasRequiredGroup = slices.Contains(groups, c.config.RequiredGroupDN)

	if result.HasRequiredGroup {
		result.Message = msgAllowed
	} else {
		result.Message = msgForbidden
	}

	c.logger.Info("authentication_successful",
		slog.String("username", maskSensitive(username)),
		slog.Bool("has_required_group", result.HasRequiredGroup),
		slog.Bool("account_enabled", result.AccountEnabled),
		slog.Bool("account_locked", result.AccountLocked),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// maskSensitive keeps the first and last rune of an identifier for log
// correlation and blanks the rest.
func maskSensitive(s string) string {
	r := []rune(s)
	if len(r) <= 2 {
		return "***"
	}
	return string(r[0]) + "***" + string(r[len(r)-1])
}
