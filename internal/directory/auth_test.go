package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authConn accepts the service bind and one user principal, and answers
// user searches with the given entry (if any).
func authConn(userUPN, userPassword string, entry *ldap.Entry) *fakeConn {
	return &fakeConn{
		bindFunc: func(u, p string) error {
			if u == svcDN && p == "svc-secret" {
				return nil
			}
			if u == userUPN && p == userPassword {
				return nil
			}
			return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
		},
		searchFunc: func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
			if entry == nil {
				return &ldap.SearchResult{}, nil
			}
			return &ldap.SearchResult{Entries: []*ldap.Entry{entry}}, nil
		},
	}
}

func memberEntry(groups ...string) *ldap.Entry {
	return testEntry("CN=John Doe,OU=People,DC=example,DC=com", map[string][]string{
		"cn":                 {"John Doe"},
		"sAMAccountName":     {"jdoe"},
		"mail":               {"john.doe@example.com"},
		"userAccountControl": {"512"},
		"memberOf":           groups,
	})
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	conn := authConn("jdoe@example.com", "right", memberEntry())
	client := testClient(t, &fakeDialer{conn: conn})

	result, err := client.Authenticate(context.Background(), "jdoe", "wrong")

	require.NoError(t, err)
	assert.False(t, result.Authenticated)
	assert.Equal(t, "jdoe", result.Username)
	assert.Equal(t, msgInvalidCredentials, result.Message)
	// all enrichment fields stay at defaults, group list stays non-nil
	assert.Nil(t, result.User)
	assert.False(t, result.HasRequiredGroup)
	assert.False(t, result.AccountEnabled)
	assert.False(t, result.AccountLocked)
	assert.Equal(t, []string{}, result.UserGroups)
	// only the probe connection was used, no searches
	assert.Empty(t, conn.searchCalls)
}

func TestAuthenticateWrongPasswordForUnknownUser(t *testing.T) {
	client := testClient(t, &fakeDialer{conn: authConn("someone@example.com", "pw", nil)})

	result, err := client.Authenticate(context.Background(), "ghost", "whatever")
	require.NoError(t, err)
	assert.False(t, result.Authenticated)
	assert.Equal(t, msgInvalidCredentials, result.Message)
	assert.Nil(t, result.User)
}

func TestAuthenticateMemberOfRequiredGroup(t *testing.T) {
	entry := memberEntry(
		"CN=Honorarios,OU=Groups,DC=example,DC=com",
		"CN=Staff,OU=Groups,DC=example,DC=com",
	)
	client := testClient(t, &fakeDialer{conn: authConn("jdoe@example.com", "hunter2", entry)})

	result, err := client.Authenticate(context.Background(), "jdoe", "hunter2")

	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.True(t, result.HasRequiredGroup)
	assert.Equal(t, msgAllowed, result.Message)
	require.NotNil(t, result.User)
	assert.Equal(t, "jdoe", result.User.SAMAccountName)
	assert.True(t, result.AccountEnabled)
	assert.False(t, result.AccountLocked)
	assert.Equal(t, []string{
		"CN=Honorarios,OU=Groups,DC=example,DC=com",
		"CN=Staff,OU=Groups,DC=example,DC=com",
	}, result.UserGroups)
}

func TestAuthenticateNotInRequiredGroup(t *testing.T) {
	entry := memberEntry("CN=Staff,OU=Groups,DC=example,DC=com")
	client := testClient(t, &fakeDialer{conn: authConn("jdoe@example.com", "hunter2", entry)})

	result, err := client.Authenticate(context.Background(), "jdoe", "hunter2")

	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.False(t, result.HasRequiredGroup)
	assert.Equal(t, msgForbidden, result.Message)
}

// Group DN comparison is an exact, case-sensitive string match.
func TestAuthenticateGroupMatchIsCaseSensitive(t *testing.T) {
	entry := memberEntry("cn=honorarios,ou=groups,dc=example,dc=com")
	client := testClient(t, &fakeDialer{conn: authConn("jdoe@example.com", "hunter2", entry)})

	result, err := client.Authenticate(context.Background(), "jdoe", "hunter2")
	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.False(t, result.HasRequiredGroup)
}

// A principal that binds but has no searchable record still authenticates;
// enrichment fields stay empty.
func TestAuthenticateBindWithoutSearchableRecord(t *testing.T) {
	client := testClient(t, &fakeDialer{conn: authConn("svc2@example.com", "pw", nil)})

	result, err := client.Authenticate(context.Background(), "svc2", "pw")

	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.Nil(t, result.User)
	assert.False(t, result.AccountEnabled)
	assert.False(t, result.AccountLocked)
	assert.False(t, result.HasRequiredGroup)
	assert.Equal(t, msgForbidden, result.Message)
	assert.Empty(t, result.UserGroups)
}

func TestAuthenticateDisabledLockedFlags(t *testing.T) {
	entry := testEntry("CN=Locked,OU=People,DC=example,DC=com", map[string][]string{
		"sAMAccountName":     {"locked"},
		"userAccountControl": {"530"}, // disabled + lockout
		"memberOf":           {"CN=Honorarios,OU=Groups,DC=example,DC=com"},
	})
	client := testClient(t, &fakeDialer{conn: authConn("locked@example.com", "pw", entry)})

	result, err := client.Authenticate(context.Background(), "locked", "pw")

	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.False(t, result.AccountEnabled)
	assert.True(t, result.AccountLocked)
	assert.True(t, result.HasRequiredGroup)
}

func TestAuthenticateUPNUsernamePassesThrough(t *testing.T) {
	conn := authConn("jdoe@other.org", "pw", nil)
	client := testClient(t, &fakeDialer{conn: conn})

	result, err := client.Authenticate(context.Background(), "jdoe@other.org", "pw")
	require.NoError(t, err)
	assert.True(t, result.Authenticated)
	assert.Equal(t, "jdoe@other.org", conn.bindCalls[0])
}

// An unreachable server during the bind probe is no credential verdict.
func TestAuthenticateDialFailureSurfacesError(t *testing.T) {
	client := testClient(t, &fakeDialer{dialErr: errors.New("connection refused")})

	result, err := client.Authenticate(context.Background(), "jdoe", "hunter2")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, result.Authenticated)
	assert.Empty(t, result.Message)
}

// A directory failure after a successful bind is no membership verdict:
// the error surfaces so callers can report an outage instead of a denial.
func TestAuthenticateEnrichmentOutageSurfacesError(t *testing.T) {
	conn := authConn("jdoe@example.com", "hunter2", nil)
	conn.searchFunc = func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
		return nil, ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))
	}
	client := testClient(t, &fakeDialer{conn: conn})

	result, err := client.Authenticate(context.Background(), "jdoe", "hunter2")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	// the bind itself succeeded, only the enrichment failed
	assert.True(t, result.Authenticated)
	assert.False(t, result.HasRequiredGroup)
}

func TestAuthenticateGroupLookupOutageSurfacesError(t *testing.T) {
	entry := memberEntry("CN=Honorarios,OU=Groups,DC=example,DC=com")
	conn := authConn("jdoe@example.com", "hunter2", entry)
	base := conn.searchFunc
	conn.searchFunc = func(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
		// the membership lookup asks for memberOf only
		if len(req.Attributes) == 1 {
			return nil, ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))
		}
		return base(req)
	}
	client := testClient(t, &fakeDialer{conn: conn})

	result, err := client.Authenticate(context.Background(), "jdoe", "hunter2")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, result.Authenticated)
	assert.False(t, result.HasRequiredGroup)
	assert.Equal(t, []string{}, result.UserGroups)
}

func TestMaskSensitive(t *testing.T) {
	assert.Equal(t, "j***e", maskSensitive("jdoe"))
	assert.Equal(t, "***", maskSensitive("ab"))
	assert.Equal(t, "***", maskSensitive(""))
}
