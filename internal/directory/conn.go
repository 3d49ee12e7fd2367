package directory

import (
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Conn is the subset of *ldap.Conn this package uses. Code under test
// substitutes a fake implementation.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SetTimeout(d time.Duration)
	Close() error
}

var _ Conn = (*ldap.Conn)(nil)

// Dialer opens a raw, unbound connection to the directory server.
type Dialer interface {
	Dial(serverURL string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(serverURL string) (Conn, error)

func (f DialerFunc) Dial(serverURL string) (Conn, error) {
	return f(serverURL)
}

// netDialer dials over the network with the configured connect timeout.
type netDialer struct {
	connectTimeout time.Duration
}

func (d *netDialer) Dial(serverURL string) (Conn, error) {
	conn, err := ldap.DialURL(serverURL, ldap.DialWithDialer(&net.Dialer{
		Timeout: d.connectTimeout,
	}))
	if err != nil {
		return nil, err
	}
	return conn, nil
}
