package authz

import "timetracker-service/internal/model"

// Principal is the authenticated actor behind a request, derived from a
// verified credential and the backing user record. It is never persisted.
type Principal struct {
	UserID    uint
	Email     string
	Role      string
	CompanyID *uint // nil for root accounts and pre-tenancy orphans
}

// IsRoot reports whether the principal holds the root role
func (p Principal) IsRoot() bool {
	return p.Role == model.RoleRoot
}

// SameCompany reports whether the principal belongs to the given company.
// A nil company only matches a nil company; an orphaned account is never
// treated as belonging everywhere.
func (p Principal) SameCompany(companyID *uint) bool {
	if p.CompanyID == nil || companyID == nil {
		return p.CompanyID == nil && companyID == nil
	}
	return *p.CompanyID == *companyID
}
