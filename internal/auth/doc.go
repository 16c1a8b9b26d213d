// Package auth authenticates delegated administrators against Active
// Directory and computes their privilege level.
//
// Authentication is a plain credential check through the directory gateway.
// No user records are kept locally, the directory is the single source of
// truth for accounts and group memberships.
//
// Privilege is recomputed from live directory state on every login: a user
// who is a transitive member of the configured super admin group becomes a
// SuperAdmin, everyone else is a DelegatedAdmin. Directory outages and
// missing configuration degrade to DelegatedAdmin, never escalate.
package auth
