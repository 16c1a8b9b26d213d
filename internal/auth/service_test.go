package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

var errDirectoryDown = errors.New("directory unreachable")

// stubGateway implements directory.Gateway with just enough behavior for
// the auth service.
type stubGateway struct {
	credentials map[string]string // username -> password
	memberships map[string][]string

	down bool
}

func (s *stubGateway) ValidateCredentials(username, password string) (bool, error) {
	if s.down {
		return false, errDirectoryDown
	}

	pw, ok := s.credentials[username]

	return ok && pw == password, nil
}

func (s *stubGateway) IsTransitiveMember(samAccountName, groupName string) (bool, error) {
	if s.down {
		return false, errDirectoryDown
	}

	for _, g := range s.memberships[samAccountName] {
		if strings.EqualFold(g, groupName) {
			return true, nil
		}
	}

	return false, nil
}

func (s *stubGateway) FindUser(string) (*directory.User, error) {
	return nil, directory.ErrUserNotFound
}

func (s *stubGateway) FindGroup(string) (*directory.Group, error) {
	return nil, directory.ErrGroupNotFound
}

func (s *stubGateway) TransitiveMembers(string) ([]directory.User, error) { return nil, nil }

func (s *stubGateway) AuthorizationGroups(string) ([]string, error) { return nil, nil }

func (s *stubGateway) ListGroups() ([]string, error) { return nil, nil }

func (s *stubGateway) MutateUser(string) (directory.Mutation, error) {
	return nil, directory.ErrUserNotFound
}

func TestIsValid(t *testing.T) {
	gw := &stubGateway{credentials: map[string]string{"alice": "s3cret"}}
	svc := NewService(config.AD{}, gw)

	assert.True(t, svc.IsValid("alice", "s3cret"))
	assert.False(t, svc.IsValid("alice", "wrong"))
	assert.False(t, svc.IsValid("ghost", "s3cret"))

	gw.down = true
	assert.False(t, svc.IsValid("alice", "s3cret"))
}

func TestComputePrivilege(t *testing.T) {
	gw := &stubGateway{
		memberships: map[string][]string{
			"alice": {"AD-Admins", "Domain Users"},
			"bob":   {"Helpdesk-Tier1"},
		},
	}
	svc := NewService(config.AD{SuperAdminGroup: "AD-Admins"}, gw)

	assert.Equal(t, RoleSuperAdmin, svc.ComputePrivilege("alice"))
	assert.Equal(t, RoleDelegatedAdmin, svc.ComputePrivilege("bob"))
}

func TestComputePrivilegeRecomputedPerLogin(t *testing.T) {
	gw := &stubGateway{
		memberships: map[string][]string{"alice": {"AD-Admins"}},
	}
	svc := NewService(config.AD{SuperAdminGroup: "AD-Admins"}, gw)

	assert.Equal(t, RoleSuperAdmin, svc.ComputePrivilege("alice"))

	// removed from the group between logins
	gw.memberships["alice"] = nil

	assert.Equal(t, RoleDelegatedAdmin, svc.ComputePrivilege("alice"))
}

func TestComputePrivilegeFailsSafe(t *testing.T) {
	t.Run("no super admin group configured", func(t *testing.T) {
		gw := &stubGateway{memberships: map[string][]string{"alice": {"AD-Admins"}}}
		svc := NewService(config.AD{}, gw)

		assert.Equal(t, RoleDelegatedAdmin, svc.ComputePrivilege("alice"))
	})

	t.Run("directory unreachable", func(t *testing.T) {
		gw := &stubGateway{
			memberships: map[string][]string{"alice": {"AD-Admins"}},
			down:        true,
		}
		svc := NewService(config.AD{SuperAdminGroup: "AD-Admins"}, gw)

		assert.Equal(t, RoleDelegatedAdmin, svc.ComputePrivilege("alice"))
	})
}
