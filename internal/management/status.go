package management

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

// UserStatus returns the current directory state of one user, or nil when the
// user is absent or the directory cannot be queried.
func (s *Service) UserStatus(username string) *directory.User {
	user, err := s.gw.FindUser(username)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("could not get user status")
		return nil
	}

	return user
}

// AllGroupNames returns the sorted names of every group in the directory,
// used by the rule editor. Empty on misconfiguration or outage.
func (s *Service) AllGroupNames() []string {
	names, err := s.gw.ListGroups()
	if err != nil {
		log.Error().Err(err).Msg("failed to list directory groups")
		return []string{}
	}

	sort.Strings(names)

	return names
}
