package adgroups

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		parent error
	}{
		{"account does not exist", ErrAccountDoesNotExist, ErrEntryDoesNotExist},
		{"group does not exist", ErrGroupDoesNotExist, ErrEntryDoesNotExist},
		{"entry already exists", ErrEntryAlreadyExists, ErrModificationFailed},
		{"insufficient permissions", ErrInsufficientPermissions, ErrModificationFailed},
		{"invalid credentials", ErrInvalidCredentials, ErrImproperlyConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.err)
			assert.ErrorIs(t, tt.err, tt.parent)
		})
	}
}

func TestErrorHierarchyIsNotFlat(t *testing.T) {
	// Siblings do not match each other.
	assert.NotErrorIs(t, ErrAccountDoesNotExist, ErrGroupDoesNotExist)
	assert.NotErrorIs(t, ErrEntryAlreadyExists, ErrInsufficientPermissions)

	// Parents do not match their children.
	assert.NotErrorIs(t, ErrEntryDoesNotExist, ErrAccountDoesNotExist)
	assert.NotErrorIs(t, ErrModificationFailed, ErrEntryAlreadyExists)

	// Unrelated roots stay unrelated.
	assert.NotErrorIs(t, ErrModificationFailed, ErrEntryDoesNotExist)
	assert.NotErrorIs(t, ErrServerUnreachable, ErrImproperlyConfigured)
}

func TestWrappedSentinelsKeepCause(t *testing.T) {
	cause := errors.New("LDAP Result Code 68")
	err := fmt.Errorf("adding %q to group %q: %w: %w", "alice", "CN=G,DC=x", ErrEntryAlreadyExists, cause)

	assert.ErrorIs(t, err, ErrEntryAlreadyExists)
	assert.ErrorIs(t, err, ErrModificationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "alice")
}
