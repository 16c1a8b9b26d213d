// Package directory defines the gateway contract against the identity store
// and its Active Directory (LDAP) implementation.
//
// All query results are read-only projections of directory state. Nothing is
// cached across calls: group membership can change between requests and stale
// answers are not acceptable for delegation checks.
package directory

import (
	"time"
)

// User is a read-only projection of a directory user principal.
type User struct {
	// SamAccountName is the canonical short username, the stable identity key.
	SamAccountName string
	// DN is the distinguished name of the entry.
	DN string
	// DisplayName is the human readable name, may be empty.
	DisplayName string
	// Email is the mail attribute, may be empty.
	Email string
	// PasswordNeverExpires reflects the DONT_EXPIRE_PASSWORD account control flag.
	PasswordNeverExpires bool
	// PasswordChangeRequired is true iff the directory has never recorded a
	// password-set event for this account.
	PasswordChangeRequired bool
	// PasswordExpiresAt is the computed password expiry. Nil when the password
	// never expires, when the directory reports no expiry, or when the
	// attribute could not be read for this one user.
	PasswordExpiresAt *time.Time
}

// Group is a read-only projection of a directory group principal.
type Group struct {
	// SamAccountName is the canonical short group name.
	SamAccountName string
	// DN is the distinguished name of the entry.
	DN string
}

// Mutation stages privileged changes to one user principal. Staged changes
// have no directory-visible effect until Save, which commits them in a single
// modify operation. Whether a failed Save leaves prior state intact is the
// directory's own consistency contract, not enforced here.
type Mutation interface {
	// SetPassword stages a password reset to the given value.
	SetPassword(newPassword string) error
	// SetPasswordNeverExpires stages the DONT_EXPIRE_PASSWORD flag.
	SetPasswordNeverExpires(never bool)
	// ExpirePasswordNow stages a forced password change at next logon.
	ExpirePasswordNow()
	// Unlock stages an account unlock. Idempotent, safe on unlocked accounts.
	Unlock()
	// Save commits all staged changes in one call.
	Save() error
}

// Gateway is the consumed directory contract. Implementations are safe for
// concurrent use; every call acquires and releases its own connection.
type Gateway interface {
	// ValidateCredentials checks a username and password against the
	// directory without using the service account.
	ValidateCredentials(username, password string) (bool, error)

	// FindUser locates a user principal by sAMAccountName.
	// Returns ErrUserNotFound if the principal is absent.
	FindUser(samAccountName string) (*User, error)

	// FindGroup locates a group principal by sAMAccountName.
	// Returns ErrGroupNotFound if the principal is absent.
	FindGroup(name string) (*Group, error)

	// TransitiveMembers enumerates all user principals that are members of the
	// given group, nested group membership included.
	TransitiveMembers(groupName string) ([]User, error)

	// AuthorizationGroups returns the names of all groups the user is a
	// transitive member of.
	AuthorizationGroups(samAccountName string) ([]string, error)

	// IsTransitiveMember reports whether the user is a direct or nested member
	// of the given group.
	IsTransitiveMember(samAccountName, groupName string) (bool, error)

	// ListGroups returns the names of all groups in the directory.
	ListGroups() ([]string, error)

	// MutateUser locates a user principal and returns a staging handle for
	// privileged changes. Returns ErrUserNotFound if the principal is absent.
	MutateUser(samAccountName string) (Mutation, error)
}
