package handler

import (
	"net/http"
	"strconv"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/middleware"
	"timetracker-service/internal/timer"
	"timetracker-service/internal/timeutil"
	"timetracker-service/pkg/config"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var timerService *timer.Service

// Init wires the handlers to the shared database connection. Must be called
// after the database is initialized.
func Init(cfg *config.Config) {
	timerService = timer.NewService(database.GetDB(), cfg.Timer.ClockSkewTolerance)
}

// StartTimer creates a new running entry for the authenticated user
func StartTimer(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	var req timer.StartInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse start request", zap.Error(err))
		return respondError(c, apperr.Invalid("invalid request"))
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	entry, err := timerService.Start(principal, req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			prometheus.RecordTimerConflict("already_running")
		}
		return respondError(c, err)
	}

	prometheus.TimerStartCounter.Inc()
	log.Info("Timer started",
		zap.Uint("entry_id", entry.ID),
		zap.Uint("user_id", principal.UserID))

	return respond(c, http.StatusCreated, entry)
}

// StopTimer terminates a running entry
func StopTimer(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	entryID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	entry, err := timerService.Stop(principal, entryID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			prometheus.RecordTimerConflict("already_stopped")
		}
		return respondError(c, err)
	}

	prometheus.TimerStopCounter.Inc()
	log.Info("Timer stopped",
		zap.Uint("entry_id", entry.ID),
		zap.Int64("duration", entry.Duration))

	return respond(c, http.StatusOK, entry)
}

// UpdateEntry applies a partial update to a running or stopped entry
func UpdateEntry(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	entryID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req timer.EntryPatch
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse update request", zap.Error(err))
		return respondError(c, apperr.Invalid("invalid request"))
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	entry, err := timerService.Update(principal, entryID, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.EntryOperationCounter.WithLabelValues("update").Inc()
	log.Info("Time entry updated", zap.Uint("entry_id", entry.ID))

	return respond(c, http.StatusOK, entry)
}

// DeleteEntry hard-deletes an entry
func DeleteEntry(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	entryID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := timerService.Discard(principal, entryID); err != nil {
		return respondError(c, err)
	}

	prometheus.EntryOperationCounter.WithLabelValues("delete").Inc()
	log.Info("Time entry deleted", zap.Uint("entry_id", entryID))

	return respondMessage(c, http.StatusOK, nil, "time entry deleted")
}

// ListEntries returns the entries visible to the principal, filtered by the
// query parameters. The company scope is always applied before the filters.
func ListEntries(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	filter, err := parseListFilter(c)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, err := timerService.List(principal, filter)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.EntryOperationCounter.WithLabelValues("list").Inc()
	return respond(c, http.StatusOK, entries)
}

// GetRunningEntry returns a user's single running entry, or null when no
// timer is running. Elapsed time is derived live from the start time; the
// stored duration of a running entry is not trusted.
func GetRunningEntry(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	userID, err := parseID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	entry, err := timerService.Running(principal, userID)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.EntryOperationCounter.WithLabelValues("running").Inc()

	if entry == nil {
		return respond(c, http.StatusOK, nil)
	}

	elapsed := timeutil.Elapsed(entry.StartTime, time.Now())
	return respond(c, http.StatusOK, echo.Map{
		"entry":             entry,
		"elapsed_seconds":   elapsed,
		"elapsed_formatted": timeutil.FormatHMS(elapsed),
	})
}

// parseID reads a positive integer path parameter
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid " + name)
	}
	return uint(id), nil
}

// parseListFilter reads the supported query parameters. Dates are in the
// server's local calendar; end_date covers its entire final day.
func parseListFilter(c echo.Context) (timer.ListFilter, error) {
	var filter timer.ListFilter

	if period := c.QueryParam("period"); period != "" {
		start, end, err := timeutil.PeriodRange(period, time.Now())
		if err != nil {
			return filter, apperr.Invalid("unknown period")
		}
		filter.StartDate = &start
		filter.EndDate = &end
	}

	if raw := c.QueryParam("start_date"); raw != "" {
		date, err := timeutil.ParseDate(raw)
		if err != nil {
			return filter, apperr.Invalid("invalid start_date")
		}
		start := timeutil.StartOfDay(date)
		filter.StartDate = &start
	}

	if raw := c.QueryParam("end_date"); raw != "" {
		date, err := timeutil.ParseDate(raw)
		if err != nil {
			return filter, apperr.Invalid("invalid end_date")
		}
		end := timeutil.EndOfDay(date)
		filter.EndDate = &end
	}

	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, apperr.Invalid("invalid project_id")
		}
		projectID := uint(id)
		filter.ProjectID = &projectID
	}

	if raw := c.QueryParam("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, apperr.Invalid("invalid user_id")
		}
		userID := uint(id)
		filter.UserID = &userID
	}

	filter.BillableOnly = c.QueryParam("billable_only") == "true"

	return filter, nil
}
