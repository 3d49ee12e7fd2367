package directory

import (
	"encoding/json"

	"github.com/go-ldap/ldap/v3"
)

// userAttributes is the fixed attribute set requested for every user
// search. Keep in sync with userFromEntry.
var userAttributes = []string{
	"cn",
	"sAMAccountName",
	"userPrincipalName",
	"mail",
	"displayName",
	"givenName",
	"sn",
	"memberOf",
	"userAccountControl",
	"distinguishedName",
}

// User is a normalized directory user record. It is constructed fresh
// for every search-result row and not mutated afterwards.
type User struct {
	CommonName        string   `json:"commonName"`
	SAMAccountName    string   `json:"samAccountName"`
	UserPrincipalName string   `json:"userPrincipalName"`
	Email             string   `json:"email"`
	DisplayName       string   `json:"displayName"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	// Groups holds the raw memberOf values, each a group distinguished
	// name, in the order the directory returned them.
	Groups []string `json:"groups"`
	// UserAccountControl is the raw account-control bitmask as returned
	// by the directory (a decimal integer in text form, possibly empty).
	UserAccountControl string `json:"userAccountControl"`
	DistinguishedName  string `json:"distinguishedName"`
}

// Enabled reports whether the ACCOUNTDISABLE bit (0x2) is clear.
// An absent or non-numeric control value reads as not enabled.
func (u User) Enabled() bool {
	return accountEnabled(u.UserAccountControl)
}

// Locked reports whether the LOCKOUT bit (0x10) is set.
// An absent or non-numeric control value reads as not locked.
func (u User) Locked() bool {
	return accountLocked(u.UserAccountControl)
}

// MarshalJSON adds the derived enabled/locked flags to the wire form.
// They are computed from UserAccountControl on every call, never stored.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		Enabled       bool `json:"enabled"`
		AccountLocked bool `json:"accountLocked"`
	}{
		alias:         alias(u),
		Enabled:       u.Enabled(),
		AccountLocked: u.Locked(),
	})
}

// userFromEntry maps a raw search-result entry to a User. Pure function,
// no I/O: every attribute is optional and absence leaves the field at
// its zero value.
func userFromEntry(entry *ldap.Entry) User {
	user := User{
		CommonName:         entry.GetAttributeValue("cn"),
		SAMAccountName:     entry.GetAttributeValue("sAMAccountName"),
		UserPrincipalName:  entry.GetAttributeValue("userPrincipalName"),
		Email:              entry.GetAttributeValue("mail"),
		DisplayName:        entry.GetAttributeValue("displayName"),
		FirstName:          entry.GetAttributeValue("givenName"),
		LastName:           entry.GetAttributeValue("sn"),
		Groups:             entry.GetAttributeValues("memberOf"),
		UserAccountControl: entry.GetAttributeValue("userAccountControl"),
		DistinguishedName:  entry.GetAttributeValue("distinguishedName"),
	}
	if user.DistinguishedName == "" {
		user.DistinguishedName = entry.DN
	}
	return user
}
