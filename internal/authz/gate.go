package authz

import "timetracker-service/internal/model"

// Decision rules for company-scoped resources. Rules are pure: callers are
// responsible for short-circuiting the operation on a denied decision, and
// for surfacing cross-company denials as not-found rather than forbidden so
// resource existence never leaks across tenants.

// elevated roles may act on other users' entries within their own company
func elevated(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleSuperAdmin, model.RoleHR:
		return true
	}
	return false
}

// CanAccessCompany reports whether the principal may touch resources owned
// by the given company at all. Admin authority is company-local; only root
// crosses companies.
func CanAccessCompany(p Principal, companyID *uint) bool {
	if p.IsRoot() {
		return true
	}
	return p.SameCompany(companyID)
}

// CanViewEntry reports whether the principal may read the given entry
func CanViewEntry(p Principal, entry *model.TimeEntry) bool {
	if p.IsRoot() {
		return true
	}
	if !p.SameCompany(entry.CompanyID) {
		return false
	}
	return entry.UserID == p.UserID || elevated(p.Role)
}

// CanViewUserEntries reports whether the principal may read another user's
// entries (e.g. the running-timer lookup)
func CanViewUserEntries(p Principal, userID uint, companyID *uint) bool {
	if p.IsRoot() {
		return true
	}
	if userID == p.UserID {
		return true
	}
	return p.SameCompany(companyID) && elevated(p.Role)
}

// CanMutateEntry reports whether the principal may update or stop the given
// entry: the owner, or an elevated role within the same company.
func CanMutateEntry(p Principal, entry *model.TimeEntry) bool {
	if p.IsRoot() {
		return true
	}
	if !p.SameCompany(entry.CompanyID) {
		return false
	}
	return entry.UserID == p.UserID || elevated(p.Role)
}

// CanDeleteEntry reports whether the principal may hard-delete the given
// entry. Deleting someone else's entry takes admin or super_admin; hr may
// view but not delete others' entries.
func CanDeleteEntry(p Principal, entry *model.TimeEntry) bool {
	if p.IsRoot() {
		return true
	}
	if !p.SameCompany(entry.CompanyID) {
		return false
	}
	if entry.UserID == p.UserID {
		return true
	}
	return p.Role == model.RoleAdmin || p.Role == model.RoleSuperAdmin
}

// CanManageCompany reports whether the principal may create or modify
// projects and clients for its company
func CanManageCompany(p Principal) bool {
	if p.IsRoot() {
		return true
	}
	switch p.Role {
	case model.RoleAdmin, model.RoleSuperAdmin:
		return true
	}
	return false
}

// CanViewCompanyWide reports whether the principal sees other users'
// entries in listings; plain employees only see their own.
func CanViewCompanyWide(p Principal) bool {
	return p.IsRoot() || elevated(p.Role)
}

// CanViewReports reports whether the principal may read aggregated company
// reports: hr and up.
func CanViewReports(p Principal) bool {
	if p.IsRoot() {
		return true
	}
	return elevated(p.Role)
}
