// Package rule provides CRUD operations for managing delegation rules.
package rule

import (
	"errors"

	"gorm.io/gorm"

	"github.com/GoAD-Admin/GoAD-Admin/internal/db/models"
)

var (
	// ErrRuleNotFound is returned when a rule is not found.
	ErrRuleNotFound = errors.New("delegation rule not found")
	// ErrAdminGroupEmpty is returned when attempting to create/update a rule with an empty admin group.
	ErrAdminGroupEmpty = errors.New("delegation rule admin group cannot be empty")
	// ErrManagedGroupsEmpty is returned when a rule has no managed groups after normalization.
	ErrManagedGroupsEmpty = errors.New("delegation rule needs at least one managed group")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a rule by its ID.
func Get(db *gorm.DB, id uint64) (*models.DelegationRule, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rule models.DelegationRule
	result := db.First(&rule, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, result.Error
	}

	return &rule, nil
}

// GetAll retrieves all rules ordered by admin group.
func GetAll(db *gorm.DB) ([]models.DelegationRule, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rules []models.DelegationRule
	result := db.Order("admin_group").Find(&rules)
	if result.Error != nil {
		return nil, result.Error
	}

	return rules, nil
}

// Create creates a new rule with the given admin group and managed groups.
func Create(db *gorm.DB, adminGroup string, managedGroups []string) (*models.DelegationRule, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if adminGroup == "" {
		return nil, ErrAdminGroupEmpty
	}

	rule := &models.DelegationRule{AdminGroup: adminGroup}
	rule.SetManagedGroupNames(managedGroups)

	if rule.ManagedGroups == "" {
		return nil, ErrManagedGroupsEmpty
	}

	result := db.Create(rule)
	if result.Error != nil {
		return nil, result.Error
	}

	return rule, nil
}

// Update replaces the admin group and managed groups of an existing rule.
func Update(db *gorm.DB, id uint64, adminGroup string, managedGroups []string) (*models.DelegationRule, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if adminGroup == "" {
		return nil, ErrAdminGroupEmpty
	}

	rule, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	rule.AdminGroup = adminGroup
	rule.SetManagedGroupNames(managedGroups)

	if rule.ManagedGroups == "" {
		return nil, ErrManagedGroupsEmpty
	}

	result := db.Save(rule)
	if result.Error != nil {
		return nil, result.Error
	}

	return rule, nil
}

// Delete removes a rule by its ID.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.DelegationRule{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}

	return nil
}

// DeleteMany removes all rules with the given IDs. Missing IDs are ignored.
func DeleteMany(db *gorm.DB, ids []uint64) error {
	if db == nil {
		return ErrDBNil
	}

	if len(ids) == 0 {
		return nil
	}

	return db.Delete(&models.DelegationRule{}, ids).Error
}
