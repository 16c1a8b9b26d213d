// Package models contains the gorm persistence models.
package models

import (
	"strings"
	"time"
)

// DelegationRule maps one AD admin group to the set of AD groups its members
// may manage. Members of AdminGroup can reset passwords and unlock accounts
// for every user inside the managed groups, nothing else.
type DelegationRule struct {
	// ID is the unique identifier for the rule.
	ID uint64 `gorm:"primaryKey"`
	// AdminGroup is the sAMAccountName of the AD group holding the delegation.
	AdminGroup string `gorm:"size:256;not null"`
	// ManagedGroups stores the managed group names comma separated.
	// Use ManagedGroupNames / SetManagedGroupNames instead of touching it directly.
	ManagedGroups string `gorm:"not null"`
	// CreatedAt is the timestamp when the rule was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the rule was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the DelegationRule model.
func (DelegationRule) TableName() string {
	return "delegation_rules"
}

// ManagedGroupNames splits the stored group list into normalized names.
// Entries are trimmed and empty entries are dropped.
func (r *DelegationRule) ManagedGroupNames() []string {
	parts := strings.Split(r.ManagedGroups, ",")
	names := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}

	return names
}

// SetManagedGroupNames normalizes and stores the given group names.
func (r *DelegationRule) SetManagedGroupNames(names []string) {
	normalized := make([]string, 0, len(names))

	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			normalized = append(normalized, n)
		}
	}

	r.ManagedGroups = strings.Join(normalized, ",")
}
