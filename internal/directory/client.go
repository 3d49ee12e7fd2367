// Package directory implements the thin Active Directory core of the
// service: connection handling, bind-based authentication, user lookups
// and attribute mapping. Everything at the LDAP protocol level (wire
// format, TLS, referral chasing) is delegated to go-ldap.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config contains the immutable connection parameters for the directory.
// It is constructed once at process start and passed explicitly; the
// client never mutates it.
type Config struct {
	// Server is the directory server URL (ldap:// or ldaps://).
	Server string
	// BaseDN is the root of the directory tree.
	BaseDN string
	// BindDN and BindPassword are the service credentials used for all
	// search operations.
	BindDN       string
	BindPassword string
	// UserSearchBase and GroupSearchBase are the subtrees searched for
	// user and group entries. Empty values fall back to BaseDN.
	UserSearchBase  string
	GroupSearchBase string
	// RequiredGroupDN is the group a caller must belong to for the
	// authentication verdict to be "allowed". Matched exactly, case
	// sensitive, as returned by the directory.
	RequiredGroupDN string
	// Domain is the UPN suffix appended to bare usernames for the
	// authentication bind (e.g. "example.com" turns "jdoe" into
	// "jdoe@example.com").
	Domain string
	// ConnectTimeout bounds the TCP dial; ReadTimeout bounds each
	// directory operation on an open connection.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 30 * time.Second
)

// Client is the directory client. All operations are stateless: each call
// opens its own connection and releases it before returning, so a single
// Client is safe for concurrent use.
type Client struct {
	config Config
	logger *slog.Logger
	dialer Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a custom structured logger for directory operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer replaces the network dialer. Used by tests to substitute
// fake connections.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// New validates the configuration and returns a directory client. No
// connection is opened here; every operation dials on demand.
func New(config Config, opts ...Option) (*Client, error) {
	if config.Server == "" {
		return nil, errors.New("directory: server URL cannot be empty")
	}
	if config.BaseDN == "" {
		return nil, errors.New("directory: base DN cannot be empty")
	}
	if config.BindDN == "" {
		return nil, errors.New("directory: bind DN cannot be empty")
	}
	if config.BindPassword == "" {
		return nil, errors.New("directory: bind password cannot be empty")
	}

	if config.UserSearchBase == "" {
		config.UserSearchBase = config.BaseDN
	}
	if config.GroupSearchBase == "" {
		config.GroupSearchBase = config.BaseDN
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaultReadTimeout
	}

	client := &Client{
		config: config,
		logger: slog.Default(),
		dialer: &netDialer{connectTimeout: config.ConnectTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}

	client.logger.Info("directory_client_configured",
		slog.String("server", config.Server),
		slog.String("base_dn", config.BaseDN),
		slog.String("user_search_base", config.UserSearchBase),
		slog.Duration("connect_timeout", config.ConnectTimeout),
		slog.Duration("read_timeout", config.ReadTimeout))

	return client, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// connect opens a connection bound with the service credentials. The
// caller owns the returned connection and must close it.
func (c *Client) connect(ctx context.Context) (Conn, error) {
	return c.open(ctx, c.config.BindDN, c.config.BindPassword)
}

// connectAs opens a connection bound with caller-supplied credentials.
// The bare username is expanded to a user principal name first. Success
// or failure of this bind is the authentication verdict; no search is
// ever issued on the returned connection.
func (c *Client) connectAs(ctx context.Context, username, password string) (Conn, error) {
	return c.open(ctx, c.formatUserPrincipal(username), password)
}

func (c *Client) open(ctx context.Context, principal, password string) (Conn, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.dialer.Dial(c.config.Server)
	if err != nil {
		c.logger.Error("directory_dial_failed",
			slog.String("server", c.config.Server),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, &Error{
			Op:     "Dial",
			Server: c.config.Server,
			Err:    fmt.Errorf("%w: %w", ErrUnavailable, err),
		}
	}

	conn.SetTimeout(c.config.ReadTimeout)

	if err := conn.Bind(principal, password); err != nil {
		_ = conn.Close()
		c.logger.Warn("directory_bind_failed",
			slog.String("server", c.config.Server),
			slog.String("principal", principal),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, wrapError("Bind", c.config.Server, err).WithDN(principal)
	}

	c.logger.Debug("directory_connection_established",
		slog.String("server", c.config.Server),
		slog.String("principal", principal),
		slog.Duration("duration", time.Since(start)))

	return conn, nil
}

// formatUserPrincipal expands a bare account name to a user principal
// name using the configured domain suffix. Usernames that already carry
// an @ pass through unchanged.
func (c *Client) formatUserPrincipal(username string) string {
	if strings.Contains(username, "@") {
		return username
	}
	return username + "@" + c.config.Domain
}

// Ping opens and releases a service connection: a successful service
// bind exercises both the transport and the configured credentials. The
// server uses it as a startup connectivity check.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}
