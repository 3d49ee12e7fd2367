package directory

import (
	"errors"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// fakeConn records the requests it receives and answers from canned
// data. bindFunc and searchFunc default to rejecting everything.
type fakeConn struct {
	bindFunc   func(username, password string) error
	searchFunc func(req *ldap.SearchRequest) (*ldap.SearchResult, error)

	bindCalls   []string
	searchCalls []*ldap.SearchRequest
	closed      int
	timeout     time.Duration
}

func (f *fakeConn) Bind(username, password string) error {
	f.bindCalls = append(f.bindCalls, username)
	if f.bindFunc == nil {
		return errors.New("bind not configured")
	}
	return f.bindFunc(username, password)
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.searchCalls = append(f.searchCalls, req)
	if f.searchFunc == nil {
		return &ldap.SearchResult{}, nil
	}
	return f.searchFunc(req)
}

func (f *fakeConn) SetTimeout(d time.Duration) { f.timeout = d }

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

// fakeDialer hands out the same conn for every dial, or fails.
type fakeDialer struct {
	conn    *fakeConn
	dialErr error
	dials   int
}

func (f *fakeDialer) Dial(serverURL string) (Conn, error) {
	f.dials++
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f.conn, nil
}

func acceptBind(username, password string) func(string, string) error {
	return func(u, p string) error {
		if u == username && p == password {
			return nil
		}
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
	}
}

func testEntry(dn string, attributes map[string][]string) *ldap.Entry {
	entry := &ldap.Entry{DN: dn}
	for name, values := range attributes {
		entry.Attributes = append(entry.Attributes, &ldap.EntryAttribute{
			Name:   name,
			Values: values,
		})
	}
	return entry
}

func testClient(t interface{ Fatalf(string, ...any) }, dialer Dialer) *Client {
	client, err := New(Config{
		Server:          "ldap://ad.example.com:389",
		BaseDN:          "DC=example,DC=com",
		BindDN:          "CN=svc-auth,OU=Service,DC=example,DC=com",
		BindPassword:    "svc-secret",
		UserSearchBase:  "OU=People,DC=example,DC=com",
		GroupSearchBase: "OU=Groups,DC=example,DC=com",
		RequiredGroupDN: "CN=Honorarios,OU=Groups,DC=example,DC=com",
		Domain:          "example.com",
	}, WithDialer(dialer))
	if err != nil {
		t.Fatalf("failed to build test client: %v", err)
	}
	return client
}
