package directory

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found in the directory.
	ErrUserNotFound = errors.New("user not found in directory")

	// ErrGroupNotFound is returned when a group cannot be found in the directory.
	ErrGroupNotFound = errors.New("group not found in directory")

	// ErrMultipleEntriesFound is returned when a query expected one principal but found multiple.
	// This typically indicates duplicate entries or a too-broad search base.
	ErrMultipleEntriesFound = errors.New("multiple directory entries found")

	// ErrMisconfigured is returned when the AD domain or service account
	// settings required for the operation are missing.
	ErrMisconfigured = errors.New("directory settings are not fully configured")
)
