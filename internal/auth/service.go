package auth

import (
	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

// Role is the privilege level of an authenticated administrator.
type Role string

const (
	// RoleSuperAdmin may manage delegation rules in addition to the
	// delegated management surface.
	RoleSuperAdmin Role = "SuperAdmin"

	// RoleDelegatedAdmin may only manage users within the groups its
	// delegation rules grant.
	RoleDelegatedAdmin Role = "DelegatedAdmin"
)

// Service provides authentication and privilege computation.
type Service struct {
	cfg config.AD
	gw  directory.Gateway
}

// NewService creates a new auth service.
func NewService(cfg config.AD, gw directory.Gateway) *Service {
	return &Service{cfg: cfg, gw: gw}
}

// IsValid reports whether the given credentials authenticate against the
// directory. Any directory failure counts as invalid.
func (s *Service) IsValid(username, password string) bool {
	ok, err := s.gw.ValidateCredentials(username, password)
	if err != nil {
		log.Error().Err(err).Str("user", username).Msg("credential validation failed")
		return false
	}

	return ok
}

// ComputePrivilege returns the role for the given user based on current
// directory state. Membership in the configured super admin group, including
// through nested groups, grants SuperAdmin. With no super admin group
// configured, or when the directory cannot answer, the result is
// DelegatedAdmin.
func (s *Service) ComputePrivilege(username string) Role {
	if s.cfg.SuperAdminGroup == "" {
		return RoleDelegatedAdmin
	}

	isMember, err := s.gw.IsTransitiveMember(username, s.cfg.SuperAdminGroup)
	if err != nil {
		log.Warn().Err(err).Str("user", username).
			Str("group", s.cfg.SuperAdminGroup).
			Msg("could not check super admin membership")

		return RoleDelegatedAdmin
	}

	if isMember {
		return RoleSuperAdmin
	}

	return RoleDelegatedAdmin
}
