package timer

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/model"
	"timetracker-service/internal/timeutil"
	"timetracker-service/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB connects to the test PostgreSQL database and runs migrations.
// Skips the test if neither TEST_DB_DSN nor the TEST_DB_* variables are set.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		host := os.Getenv("TEST_DB_HOST")
		port := os.Getenv("TEST_DB_PORT")
		user := os.Getenv("TEST_DB_USER")
		password := os.Getenv("TEST_DB_PASSWORD")
		dbname := os.Getenv("TEST_DB_NAME")

		if host == "" || port == "" || user == "" || dbname == "" {
			t.Skip("TEST_DB_DSN or TEST_DB_* environment variables not set, skipping PostgreSQL integration test")
		}
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

func newTestService(db *gorm.DB) *Service {
	return NewService(db, 5*time.Second)
}

func createCompany(t *testing.T, db *gorm.DB, pricingLevel string) *model.Company {
	t.Helper()
	company := model.Company{
		Name:         "co-" + uuid.New().String(),
		IsActive:     true,
		PricingLevel: pricingLevel,
		MaxMembers:   model.DefaultMaxMembers(pricingLevel),
	}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func createUser(t *testing.T, db *gorm.DB, role string, companyID *uint) (*model.User, authz.Principal) {
	t.Helper()
	user := model.User{
		Email:     uuid.New().String() + "@example.com",
		Password:  "x",
		Role:      role,
		CompanyID: companyID,
		Active:    true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user, authz.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}
}

func createProject(t *testing.T, db *gorm.DB, companyID *uint, name string) *model.Project {
	t.Helper()
	project := model.Project{CompanyID: companyID, Name: name, IsActive: true}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

func TestStartStopLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	t0 := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return t0 }

	entry, err := svc.Start(principal, StartInput{Description: "deep work"})
	require.NoError(t, err)
	assert.True(t, entry.IsRunning)
	assert.Nil(t, entry.EndTime)
	assert.Equal(t, int64(0), entry.Duration)
	assert.Equal(t, principal.UserID, entry.UserID)
	require.NotNil(t, entry.CompanyID)
	assert.Equal(t, company.ID, *entry.CompanyID)

	// Stop 125 seconds later
	svc.now = func() time.Time { return t0.Add(125 * time.Second) }
	stopped, err := svc.Stop(principal, entry.ID)
	require.NoError(t, err)
	assert.False(t, stopped.IsRunning)
	require.NotNil(t, stopped.EndTime)
	assert.Equal(t, int64(125), stopped.Duration)

	// Stopping again must be rejected, never recomputed
	svc.now = func() time.Time { return t0.Add(10 * time.Minute) }
	_, err = svc.Stop(principal, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var reloaded model.TimeEntry
	require.NoError(t, db.First(&reloaded, entry.ID).Error)
	assert.Equal(t, int64(125), reloaded.Duration, "double stop must not overwrite the duration")
}

func TestStartConflictWhileRunning(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	_, err := svc.Start(principal, StartInput{Description: "first"})
	require.NoError(t, err)

	_, err = svc.Start(principal, StartInput{Description: "second"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestConcurrentStartRace(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Start(principal, StartInput{Description: "race"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent start may win")

	var running int64
	require.NoError(t, db.Model(&model.TimeEntry{}).
		Where("user_id = ? AND is_running", principal.UserID).
		Count(&running).Error)
	assert.Equal(t, int64(1), running)
}

func TestStopUnknownEntry(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	_, err := svc.Stop(principal, 999999999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCrossCompanyAccessMaskedAsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	companyA := createCompany(t, db, model.PricingOffice)
	companyB := createCompany(t, db, model.PricingOffice)
	_, adminA := createUser(t, db, model.RoleAdmin, &companyA.ID)
	_, workerB := createUser(t, db, model.RoleEmployee, &companyB.ID)

	entry, err := svc.Start(workerB, StartInput{Description: "company B work"})
	require.NoError(t, err)

	// Even an admin sees a foreign company's entry as missing, not forbidden
	_, err = svc.Stop(adminA, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.Discard(adminA, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestEmployeeCannotTouchPeerEntry(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, owner := createUser(t, db, model.RoleEmployee, &company.ID)
	_, peer := createUser(t, db, model.RoleEmployee, &company.ID)
	_, hr := createUser(t, db, model.RoleHR, &company.ID)

	entry, err := svc.Start(owner, StartInput{Description: "mine"})
	require.NoError(t, err)

	_, err = svc.Stop(peer, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// hr may stop a colleague's entry but not delete it
	err = svc.Discard(hr, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Stop(hr, entry.ID)
	require.NoError(t, err)
}

func TestUpdatePatchSemantics(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)
	project := createProject(t, db, &company.ID, "Website")

	entry, err := svc.Start(principal, StartInput{
		Description: "initial",
		ProjectID:   &project.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Website", entry.ProjectName)

	// Absent fields leave stored values unchanged
	patched, err := svc.Update(principal, entry.ID, EntryPatch{})
	require.NoError(t, err)
	assert.Equal(t, "initial", patched.Description)
	assert.Equal(t, "Website", patched.ProjectName)

	// A dangling project reference keeps the cached display name
	var dangling EntryPatch
	dangling.ProjectID.Present = true
	dangling.ProjectID.Value = 999999999
	patched, err = svc.Update(principal, entry.ID, dangling)
	require.NoError(t, err)
	assert.Equal(t, "Website", patched.ProjectName)

	// Explicit null clears the project and its cached name
	var clear EntryPatch
	clear.ProjectID.Present = true
	clear.ProjectID.Null = true
	patched, err = svc.Update(principal, entry.ID, clear)
	require.NoError(t, err)
	assert.Nil(t, patched.ProjectID)
	assert.Equal(t, "", patched.ProjectName)

	// Value sets
	var rename EntryPatch
	rename.Description.Present = true
	rename.Description.Value = "renamed"
	patched, err = svc.Update(principal, entry.ID, rename)
	require.NoError(t, err)
	assert.Equal(t, "renamed", patched.Description)
}

func TestUpdateRecomputesDurationOnStartChange(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	t0 := time.Now().Truncate(time.Second).Add(-time.Hour)
	svc.now = func() time.Time { return t0 }
	entry, err := svc.Start(principal, StartInput{Description: "work"})
	require.NoError(t, err)

	svc.now = func() time.Time { return t0.Add(10 * time.Minute) }
	_, err = svc.Stop(principal, entry.ID)
	require.NoError(t, err)

	// Re-anchor the start five minutes later: duration shrinks to 300s
	var patch EntryPatch
	patch.StartTime.Present = true
	patch.StartTime.Value = t0.Add(5 * time.Minute)
	patched, err := svc.Update(principal, entry.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, int64(300), patched.Duration)
}

func TestStartRejectsFutureStartTime(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	future := time.Now().Add(time.Hour)
	_, err := svc.Start(principal, StartInput{StartTime: &future})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestSoloPlanForcesBillable(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingSolo)
	_, principal := createUser(t, db, model.RoleSuperAdmin, &company.ID)

	notBillable := false
	entry, err := svc.Start(principal, StartInput{IsBillable: &notBillable})
	require.NoError(t, err)
	assert.True(t, entry.IsBillable, "solo plan entries are always billable")

	var patch EntryPatch
	patch.IsBillable.Present = true
	patch.IsBillable.Value = false
	_, err = svc.Update(principal, entry.ID, patch)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestRunningLookup(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	companyA := createCompany(t, db, model.PricingOffice)
	companyB := createCompany(t, db, model.PricingOffice)
	_, owner := createUser(t, db, model.RoleEmployee, &companyA.ID)
	_, peer := createUser(t, db, model.RoleEmployee, &companyA.ID)
	_, hrA := createUser(t, db, model.RoleHR, &companyA.ID)
	_, hrB := createUser(t, db, model.RoleHR, &companyB.ID)

	running, err := svc.Running(owner, owner.UserID)
	require.NoError(t, err)
	assert.Nil(t, running)

	entry, err := svc.Start(owner, StartInput{Description: "tracked"})
	require.NoError(t, err)

	running, err = svc.Running(owner, owner.UserID)
	require.NoError(t, err)
	require.NotNil(t, running)
	assert.Equal(t, entry.ID, running.ID)

	// A plain employee cannot watch a peer's timer
	_, err = svc.Running(peer, owner.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// hr in the same company can
	running, err = svc.Running(hrA, owner.UserID)
	require.NoError(t, err)
	require.NotNil(t, running)

	// hr in another company sees the user as missing
	_, err = svc.Running(hrB, owner.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListScopeIsolation(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	companyA := createCompany(t, db, model.PricingOffice)
	companyB := createCompany(t, db, model.PricingOffice)
	_, adminA := createUser(t, db, model.RoleAdmin, &companyA.ID)
	_, workerA := createUser(t, db, model.RoleEmployee, &companyA.ID)
	_, workerB := createUser(t, db, model.RoleEmployee, &companyB.ID)

	entryA, err := svc.Start(workerA, StartInput{Description: "A work"})
	require.NoError(t, err)
	_, err = svc.Start(workerB, StartInput{Description: "B work"})
	require.NoError(t, err)

	// The admin's listing never contains company-B rows
	entries, err := svc.List(adminA, ListFilter{})
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		require.NotNil(t, e.CompanyID)
		assert.Equal(t, companyA.ID, *e.CompanyID)
		if e.ID == entryA.ID {
			found = true
		}
	}
	assert.True(t, found)

	// Pointing the user filter at a company-B user yields nothing: the
	// scope is applied before user-supplied filters
	entries, err = svc.List(adminA, ListFilter{UserID: &workerB.UserID})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Employees only see their own entries
	entries, err = svc.List(workerA, ListFilter{})
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, workerA.UserID, e.UserID)
	}
}

func TestListDateRangeInclusive(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	// An entry logged at 23:50 on the final day of the range
	lateStart := time.Date(2024, 3, 5, 23, 50, 0, 0, time.Local)
	end := lateStart.Add(8 * time.Minute)
	entry := model.TimeEntry{
		UserID:     principal.UserID,
		CompanyID:  principal.CompanyID,
		StartTime:  lateStart,
		EndTime:    &end,
		Duration:   480,
		IsRunning:  false,
		IsBillable: true,
	}
	require.NoError(t, db.Create(&entry).Error)

	rangeStart := timeutil.StartOfDay(lateStart)
	rangeEnd := timeutil.EndOfDay(lateStart)
	entries, err := svc.List(principal, ListFilter{StartDate: &rangeStart, EndDate: &rangeEnd})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestDiscard(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	company := createCompany(t, db, model.PricingOffice)
	_, principal := createUser(t, db, model.RoleEmployee, &company.ID)

	entry, err := svc.Start(principal, StartInput{Description: "started by mistake"})
	require.NoError(t, err)

	require.NoError(t, svc.Discard(principal, entry.ID))

	var count int64
	require.NoError(t, db.Model(&model.TimeEntry{}).Where("id = ?", entry.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count, "discard is a hard delete")

	err = svc.Discard(principal, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
