package directory

import "strconv"

// userAccountControl bits relevant to this service.
// https://learn.microsoft.com/en-us/windows/win32/adschema/a-useraccountcontrol
const (
	uacAccountDisable = 0x2
	uacLockout        = 0x10
)

// accountEnabled reports whether the ACCOUNTDISABLE flag is clear in the
// given userAccountControl value. An absent or unparseable value yields
// false: an account whose state cannot be read is treated as disabled.
func accountEnabled(userAccountControl string) bool {
	uac, err := strconv.ParseInt(userAccountControl, 10, 32)
	if err != nil {
		return false
	}
	return uac&uacAccountDisable == 0
}

// accountLocked reports whether the LOCKOUT flag is set. An absent or
// unparseable value yields false. Note the asymmetry with accountEnabled:
// an unreadable control value means "not enabled" but also "not locked".
func accountLocked(userAccountControl string) bool {
	uac, err := strconv.ParseInt(userAccountControl, 10, 32)
	if err != nil {
		return false
	}
	return uac&uacLockout != 0
}
