package adgroups

import "errors"

// directoryError is a sentinel error that participates in an error
// hierarchy: errors.Is matches the sentinel itself and every parent above
// it, mirroring exception subclassing.
type directoryError struct {
	msg    string
	parent error
}

func (e *directoryError) Error() string { return e.msg }
func (e *directoryError) Unwrap() error { return e.parent }

func newDirectoryError(msg string, parent error) error {
	return &directoryError{msg: msg, parent: parent}
}

// Sentinel errors returned by group operations. Wrapped causes from the
// underlying protocol client remain reachable through errors.Unwrap.
var (
	// ErrEntryDoesNotExist indicates the requested directory entry does not exist.
	ErrEntryDoesNotExist = errors.New("the requested entry does not exist in the directory")

	// ErrAccountDoesNotExist indicates the requested user account does not exist.
	ErrAccountDoesNotExist = newDirectoryError("the account name provided does not exist in the directory", ErrEntryDoesNotExist)

	// ErrGroupDoesNotExist indicates the requested group does not exist.
	ErrGroupDoesNotExist = newDirectoryError("the group provided does not exist in the directory", ErrEntryDoesNotExist)

	// ErrModificationFailed indicates a group modification could not be performed.
	ErrModificationFailed = errors.New("the group could not be modified")

	// ErrEntryAlreadyExists indicates the entry is already present in the
	// group being modified. Matches ErrModificationFailed.
	ErrEntryAlreadyExists = newDirectoryError("the entry already exists in the group", ErrModificationFailed)

	// ErrInsufficientPermissions indicates the bind user lacks permission to
	// modify the group. Matches ErrModificationFailed.
	ErrInsufficientPermissions = newDirectoryError("the bind user does not have permission to modify this group", ErrModificationFailed)

	// ErrImproperlyConfigured indicates the configuration is incomplete or invalid.
	ErrImproperlyConfigured = errors.New("adgroups is improperly configured")

	// ErrInvalidCredentials indicates the bind DN or password is invalid.
	// Matches ErrImproperlyConfigured.
	ErrInvalidCredentials = newDirectoryError("the server URI, bind DN, or bind password provided is not valid", ErrImproperlyConfigured)

	// ErrServerUnreachable indicates the directory server is down or the
	// server URI is invalid.
	ErrServerUnreachable = errors.New("the LDAP server is unreachable")

	// ErrInvalidGroupDN indicates the group distinguished name is invalid.
	ErrInvalidGroupDN = errors.New("the group distinguished name provided is invalid")
)
