package management

import (
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

// ManagedUsers lists the users of the given managed groups, deduplicated and
// ordered by username.
//
// selectedGroup narrows the scan to one group, but only if it is inside
// managedGroups: a caller-supplied group outside the authorized set is
// silently ignored, it must never widen access.
//
// searchTerm filters by case-insensitive substring on username or display
// name. A directory failure mid-scan yields the results collected so far.
func (s *Service) ManagedUsers(managedGroups []string, selectedGroup, searchTerm string) []directory.User {
	if len(managedGroups) == 0 {
		return []directory.User{}
	}

	groupsToScan := managedGroups
	if selectedGroup != "" && containsFold(managedGroups, selectedGroup) {
		groupsToScan = []string{selectedGroup}
	}

	seen := make(map[string]directory.User)

	for _, group := range groupsToScan {
		members, err := s.gw.TransitiveMembers(group)
		if err != nil {
			if errors.Is(err, directory.ErrGroupNotFound) {
				log.Warn().Str("group", group).Msg("managed group not found in directory")
				continue
			}

			log.Error().Err(err).Str("group", group).
				Msg("member enumeration failed, returning partial results")

			break
		}

		// first occurrence wins across overlapping groups
		for _, member := range members {
			key := strings.ToLower(member.SamAccountName)
			if _, ok := seen[key]; !ok {
				seen[key] = member
			}
		}
	}

	users := make([]directory.User, 0, len(seen))

	for _, user := range seen {
		if searchTerm != "" && !matchesSearch(user, searchTerm) {
			continue
		}

		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].SamAccountName < users[j].SamAccountName
	})

	return users
}

func matchesSearch(user directory.User, term string) bool {
	term = strings.ToLower(term)

	return strings.Contains(strings.ToLower(user.SamAccountName), term) ||
		strings.Contains(strings.ToLower(user.DisplayName), term)
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}

	return false
}
