package management

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/db/controller/rule"
)

// ManagedGroupNames resolves the effective set of groups the admin may
// manage: the union of the managed groups of every delegation rule whose
// admin group the admin is a transitive member of. Group name matching is
// case-insensitive, output casing is preserved as stored in the rules.
//
// Fails closed: an unknown admin, an unreachable directory or an empty rule
// table all resolve to an empty set.
func (s *Service) ManagedGroupNames(adminUsername string) []string {
	rules, err := rule.GetAll(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to load delegation rules")
		return []string{}
	}

	if len(rules) == 0 {
		return []string{}
	}

	memberships, err := s.gw.AuthorizationGroups(adminUsername)
	if err != nil {
		log.Warn().Err(err).Str("admin", adminUsername).
			Msg("could not resolve group memberships, delegating nothing")
		return []string{}
	}

	memberSet := make(map[string]struct{}, len(memberships))
	for _, m := range memberships {
		memberSet[strings.ToLower(m)] = struct{}{}
	}

	// union of managed groups over all matching rules, first casing wins
	managed := make(map[string]string)

	for _, r := range rules {
		if _, ok := memberSet[strings.ToLower(r.AdminGroup)]; !ok {
			continue
		}

		for _, name := range r.ManagedGroupNames() {
			key := strings.ToLower(name)
			if _, ok := managed[key]; !ok {
				managed[key] = name
			}
		}
	}

	names := make([]string, 0, len(managed))
	for _, name := range managed {
		names = append(names, name)
	}

	sort.Strings(names)

	log.Debug().Str("admin", adminUsername).Int("groups", len(names)).
		Msg("resolved managed groups")

	return names
}
