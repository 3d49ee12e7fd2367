package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// searchUsers runs a subtree search below the user search base with the
// fixed user attribute set and maps every entry. A missing subtree or a
// partial result set is an empty result, not a failure.
func (c *Client) searchUsers(ctx context.Context, op, filter string) ([]User, error) {
	start := time.Now()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for %s: %w", op, err)
	}
	defer func() { _ = conn.Close() }()

	result, err := conn.Search(&ldap.SearchRequest{
		BaseDN:       c.config.UserSearchBase,
		Scope:        ldap.ScopeWholeSubtree,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       filter,
		Attributes:   userAttributes,
	})
	if err != nil {
		if isBenignSearchError(err) {
			c.logger.Debug("directory_search_partial",
				slog.String("operation", op),
				slog.String("error", err.Error()))
			return nil, nil
		}
		c.logger.Error("directory_search_failed",
			slog.String("operation", op),
			slog.String("filter", filter),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, wrapError(op, c.config.Server, err)
	}

	users := make([]User, 0, len(result.Entries))
	for _, entry := range result.Entries {
		users = append(users, userFromEntry(entry))
	}

	c.logger.Debug("directory_search_completed",
		slog.String("operation", op),
		slog.Int("entries", len(users)),
		slog.Duration("duration", time.Since(start)))

	return users, nil
}

// FindUserBySAMAccountName retrieves the user with the given account name.
func (c *Client) FindUserBySAMAccountName(sAMAccountName string) (*User, error) {
	return c.FindUserBySAMAccountNameContext(context.Background(), sAMAccountName)
}

// FindUserBySAMAccountNameContext retrieves the user with the given
// account name. Returns ErrUserNotFound when no entry matches.
func (c *Client) FindUserBySAMAccountNameContext(ctx context.Context, sAMAccountName string) (*User, error) {
	filter := fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(sAMAccountName))

	users, err := c.searchUsers(ctx, "FindUserBySAMAccountName", filter)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// SearchUsers returns every user whose common name, account name, mail
// or display name contains the given term.
func (c *Client) SearchUsers(term string) ([]User, error) {
	return c.SearchUsersContext(context.Background(), term)
}

// SearchUsersContext returns every user whose common name, account name,
// mail or display name contains the given term. The term is escaped
// before being embedded in the filter.
func (c *Client) SearchUsersContext(ctx context.Context, term string) ([]User, error) {
	escaped := ldap.EscapeFilter(term)
	filter := fmt.Sprintf(
		"(&(objectClass=user)(|(cn=*%[1]s*)(sAMAccountName=*%[1]s*)(mail=*%[1]s*)(displayName=*%[1]s*)))",
		escaped)

	return c.searchUsers(ctx, "SearchUsers", filter)
}

// FindUsersInGroup returns every user that is a direct member of the
// group with the given distinguished name.
func (c *Client) FindUsersInGroup(groupDN string) ([]User, error) {
	return c.FindUsersInGroupContext(context.Background(), groupDN)
}

// FindUsersInGroupContext returns every user that is a direct member of
// the group with the given distinguished name.
func (c *Client) FindUsersInGroupContext(ctx context.Context, groupDN string) ([]User, error) {
	filter := fmt.Sprintf("(&(objectClass=user)(memberOf=%s))", ldap.EscapeFilter(groupDN))

	return c.searchUsers(ctx, "FindUsersInGroup", filter)
}

// FindUsers returns all user entries below the user search base.
func (c *Client) FindUsers() ([]User, error) {
	return c.FindUsersContext(context.Background())
}

// FindUsersContext returns all user entries below the user search base.
func (c *Client) FindUsersContext(ctx context.Context) ([]User, error) {
	return c.searchUsers(ctx, "FindUsers", "(&(objectClass=user)(objectClass=person))")
}

// UserGroups returns the distinguished names of the groups the user
// belongs to.
func (c *Client) UserGroups(sAMAccountName string) ([]string, error) {
	return c.UserGroupsContext(context.Background(), sAMAccountName)
}

// UserGroupsContext returns the distinguished names of the groups the
// user belongs to, in directory order. A user without memberships, or no
// matching user at all, yields an empty list.
func (c *Client) UserGroupsContext(ctx context.Context, sAMAccountName string) ([]string, error) {
	start := time.Now()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for UserGroups: %w", err)
	}
	defer func() { _ = conn.Close() }()

	filter := fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", ldap.EscapeFilter(sAMAccountName))

	result, err := conn.Search(&ldap.SearchRequest{
		BaseDN:       c.config.UserSearchBase,
		Scope:        ldap.ScopeWholeSubtree,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       filter,
		Attributes:   []string{"memberOf"},
	})
	if err != nil {
		if isBenignSearchError(err) {
			return []string{}, nil
		}
		c.logger.Error("directory_search_failed",
			slog.String("operation", "UserGroups"),
			slog.String("filter", filter),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, wrapError("UserGroups", c.config.Server, err)
	}

	if len(result.Entries) == 0 {
		return []string{}, nil
	}

	groups := result.Entries[0].GetAttributeValues("memberOf")
	if groups == nil {
		groups = []string{}
	}

	c.logger.Debug("directory_groups_fetched",
		slog.String("sam_account_name", sAMAccountName),
		slog.Int("groups", len(groups)),
		slog.Duration("duration", time.Since(start)))

	return groups, nil
}
