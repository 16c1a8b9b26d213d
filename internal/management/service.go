// Package management implements the delegated administration core: resolving
// which groups an admin may manage, listing the users inside them and
// executing privileged password resets.
package management

import (
	"gorm.io/gorm"

	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

// Service provides delegated directory management.
//
// Every operation re-queries the directory; results are valid for one request
// only. Failures never escape as errors: callers get restrictive outcomes
// (empty lists, nil, false) and must treat them as "nothing delegated", never
// as "all access granted".
type Service struct {
	db *gorm.DB
	gw directory.Gateway
}

// NewService creates a management service on top of the rule database and the
// directory gateway.
func NewService(db *gorm.DB, gw directory.Gateway) *Service {
	return &Service{db: db, gw: gw}
}
