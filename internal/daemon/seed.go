package daemon

import (
	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/config"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/controller/rule"
	"github.com/GoAD-Admin/GoAD-Admin/internal/db/models"
)

// seed creates the configured delegation rules when the rule table is empty.
// An already populated table is never touched, rules are managed through the
// admin endpoints from then on.
func seed(cfg *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.DelegationRule{}).Count(&count)
	if count > 0 {
		return
	}

	for _, mapping := range cfg.Delegation.AdminMappings {
		if _, err := rule.Create(db, mapping.AdminGroup, mapping.ManagedGroups); err != nil {
			log.Error().Err(err).Str("adminGroup", mapping.AdminGroup).
				Msg("failed to seed delegation rule")

			continue
		}

		log.Info().Str("adminGroup", mapping.AdminGroup).
			Strs("managedGroups", mapping.ManagedGroups).
			Msg("seeded delegation rule")
	}
}
