package scope

import (
	"timetracker-service/internal/authz"

	"gorm.io/gorm"
)

// Scope is the mandatory visibility filter applied to every read and write
// of company-owned rows. It is either unrestricted (root) or pinned to one
// company, possibly the nil company for pre-tenancy orphan accounts.
type Scope struct {
	all       bool
	companyID *uint
}

// All returns the unrestricted scope
func All() Scope {
	return Scope{all: true}
}

// Company returns a scope restricted to one company. A nil id restricts to
// rows whose company_id IS NULL; it is deliberately not coerced to All.
func Company(id *uint) Scope {
	return Scope{companyID: id}
}

// ForPrincipal derives the effective scope for a principal
func ForPrincipal(p authz.Principal) Scope {
	if p.IsRoot() {
		return All()
	}
	return Company(p.CompanyID)
}

// IsAll reports whether the scope is unrestricted
func (s Scope) IsAll() bool {
	return s.all
}

// Contains reports whether a row owned by companyID is visible in this scope
func (s Scope) Contains(companyID *uint) bool {
	if s.all {
		return true
	}
	if s.companyID == nil || companyID == nil {
		return s.companyID == nil && companyID == nil
	}
	return *s.companyID == *companyID
}

// Apply adds the scope predicate to a query. Callers must apply the scope
// before any user-supplied filter and before pagination.
func (s Scope) Apply(db *gorm.DB) *gorm.DB {
	if s.all {
		return db
	}
	if s.companyID == nil {
		return db.Where("company_id IS NULL")
	}
	return db.Where("company_id = ?", *s.companyID)
}
