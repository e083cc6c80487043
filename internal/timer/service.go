package timer

import (
	"errors"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/model"
	"timetracker-service/internal/scope"
	"timetracker-service/internal/timeutil"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// RunningEntryIndex is the partial unique index enforcing "at most one
// running entry per user". Concurrent starts race on this index at the
// store instead of on a check-then-insert in the handler; the violation is
// translated to a conflict.
const RunningEntryIndex = "ux_time_entries_running_user"

// Service owns the time-entry lifecycle: start, stop, update, discard and
// the scoped queries over entries. Every method authorizes the principal
// before touching the store; cross-company access surfaces as not-found.
type Service struct {
	db   *gorm.DB
	now  func() time.Time
	skew time.Duration
}

// NewService creates a timer service. skew is the tolerance for
// client-supplied start times that sit slightly in the future.
func NewService(db *gorm.DB, skew time.Duration) *Service {
	return &Service{db: db, now: time.Now, skew: skew}
}

// StartInput is the draft for a new running entry
type StartInput struct {
	Description string     `json:"description"`
	ProjectID   *uint      `json:"project_id"`
	ClientID    *uint      `json:"client_id"`
	IsBillable  *bool      `json:"is_billable"`
	Tags        []string   `json:"tags"`
	StartTime   *time.Time `json:"start_time"`
}

// Start creates a new running entry for the principal. It fails with a
// conflict if the user already has a running entry; the check and the
// insert are one logical unit thanks to the partial unique index.
func (s *Service) Start(p authz.Principal, in StartInput) (*model.TimeEntry, error) {
	now := s.now()

	startTime := now
	if in.StartTime != nil {
		startTime = *in.StartTime
	}
	if startTime.After(now.Add(s.skew)) {
		return nil, apperr.Invalid("start time is in the future")
	}

	billable := false
	if in.IsBillable != nil {
		billable = *in.IsBillable
	}

	// Solo-plan tenants bill everything; the rule lives here at the
	// creation boundary, not in the store.
	company, err := s.companyFor(p)
	if err != nil {
		return nil, err
	}
	if company != nil && company.IsSolo() {
		billable = true
	}

	entry := model.TimeEntry{
		UserID:      p.UserID,
		CompanyID:   p.CompanyID,
		Description: in.Description,
		StartTime:   startTime,
		Duration:    0,
		IsRunning:   true,
		IsBillable:  billable,
		Tags:        in.Tags,
	}

	if in.ProjectID != nil {
		project, err := s.findProject(p.CompanyID, *in.ProjectID)
		if err != nil {
			return nil, err
		}
		if project == nil {
			return nil, apperr.Invalid("project not found")
		}
		entry.ProjectID = &project.ID
		entry.ProjectName = project.Name
	}

	if in.ClientID != nil {
		client, err := s.findClient(p.CompanyID, *in.ClientID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, apperr.Invalid("client not found")
		}
		entry.ClientID = &client.ID
		entry.ClientName = client.Name
	}

	if err := s.db.Create(&entry).Error; err != nil {
		if isUniqueViolation(err, RunningEntryIndex) {
			return nil, apperr.Conflict("a timer is already running for this user")
		}
		return nil, apperr.Internal("failed to create time entry", err)
	}

	return &entry, nil
}

// Stop terminates a running entry. Stopping an already-stopped entry is
// rejected with a conflict and never recomputes the stored duration; the
// conditional update keeps two concurrent stops from both succeeding.
func (s *Service) Stop(p authz.Principal, entryID uint) (*model.TimeEntry, error) {
	entry, err := s.load(p, entryID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateEntry(p, entry) {
		return nil, apperr.Forbidden("not allowed to stop this entry")
	}
	if !entry.IsRunning {
		return nil, apperr.Conflict("time entry is already stopped")
	}

	endTime := s.now()
	duration := timeutil.Elapsed(entry.StartTime, endTime)

	result := s.db.Model(&model.TimeEntry{}).
		Where("id = ? AND is_running", entryID).
		Updates(map[string]interface{}{
			"end_time":   endTime,
			"duration":   duration,
			"is_running": false,
		})
	if result.Error != nil {
		return nil, apperr.Internal("failed to stop time entry", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race against a concurrent stop
		return nil, apperr.Conflict("time entry is already stopped")
	}

	return s.reload(entryID)
}

// Discard hard-deletes an entry ("I started by mistake")
func (s *Service) Discard(p authz.Principal, entryID uint) error {
	entry, err := s.load(p, entryID)
	if err != nil {
		return err
	}
	if !authz.CanDeleteEntry(p, entry) {
		return apperr.Forbidden("not allowed to delete this entry")
	}

	if err := s.db.Delete(&model.TimeEntry{}, entryID).Error; err != nil {
		return apperr.Internal("failed to delete time entry", err)
	}
	return nil
}

// Running returns the target user's single running entry, or nil if the
// user has no timer running.
func (s *Service) Running(p authz.Principal, userID uint) (*model.TimeEntry, error) {
	var target model.User
	if err := s.db.First(&target, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}

	if !authz.CanViewUserEntries(p, userID, target.CompanyID) {
		if !p.SameCompany(target.CompanyID) {
			// Same rendering as an unknown user across tenants
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Forbidden("not allowed to view this user's entries")
	}

	var entry model.TimeEntry
	err := s.db.Where("user_id = ? AND is_running", userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to query running entry", err)
	}
	return &entry, nil
}

// load fetches an entry and masks cross-company rows as not-found
func (s *Service) load(p authz.Principal, entryID uint) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	if err := s.db.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("time entry not found")
		}
		return nil, apperr.Internal("failed to load time entry", err)
	}
	if !authz.CanAccessCompany(p, entry.CompanyID) {
		return nil, apperr.NotFound("time entry not found")
	}
	return &entry, nil
}

func (s *Service) reload(entryID uint) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	if err := s.db.First(&entry, entryID).Error; err != nil {
		return nil, apperr.Internal("failed to reload time entry", err)
	}
	return &entry, nil
}

// companyFor loads the principal's company; nil for companyless principals
func (s *Service) companyFor(p authz.Principal) (*model.Company, error) {
	if p.CompanyID == nil {
		return nil, nil
	}
	var company model.Company
	if err := s.db.First(&company, *p.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to load company", err)
	}
	return &company, nil
}

// findProject resolves a project within the given company, nil if absent
func (s *Service) findProject(companyID *uint, projectID uint) (*model.Project, error) {
	var project model.Project
	err := scope.Company(companyID).Apply(s.db).First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load project", err)
	}
	return &project, nil
}

// findClient resolves a client within the given company, nil if absent
func (s *Service) findClient(companyID *uint, clientID uint) (*model.Client, error) {
	var client model.Client
	err := scope.Company(companyID).Apply(s.db).First(&client, clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load client", err)
	}
	return &client, nil
}

// isUniqueViolation reports whether err is a postgres unique violation on
// the named constraint (or any unique violation when constraint is empty)
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}
