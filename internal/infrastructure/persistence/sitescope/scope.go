// Package sitescope keeps site-owned rows inside their site.
//
// Reads go through Scope, which refuses to run without a site. Writes are
// checked by the callback installed with Register, which rejects a create
// whose site_id was never set.
package sitescope

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the owning-site column on every site-owned table
const Column = "site_id"

// ErrSiteRequired is returned when a site-owned query or insert has no site
var ErrSiteRequired = errors.New("site_id is required for site-owned rows")

// Scope restricts a query to one site. A nil site ID fails the statement
// instead of silently widening it to every site.
func Scope(siteID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if siteID == uuid.Nil {
			_ = db.AddError(ErrSiteRequired)
			return db
		}
		return db.Where(Column+" = ?", siteID)
	}
}

// ScopeOwner restricts a query to one user's rows on one site
func ScopeOwner(siteID, userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Scope(siteID)(db).Where("user_id = ?", userID)
	}
}
