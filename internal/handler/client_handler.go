package handler

import (
	"errors"
	"net/http"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/authz"
	"timetracker-service/internal/middleware"
	"timetracker-service/internal/model"
	"timetracker-service/internal/scope"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateClient creates a client in the principal's company. Solo-plan
// tenants are capped at a single client.
func CreateClient(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !authz.CanManageCompany(principal) {
		return respondError(c, apperr.Forbidden("not allowed to manage clients"))
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}
	if req.Name == "" {
		return respondError(c, apperr.Invalid("name is required"))
	}

	if err := checkSoloCap(principal.CompanyID, &model.Client{}, "client"); err != nil {
		return respondError(c, err)
	}

	client := model.Client{
		CompanyID: principal.CompanyID,
		Name:      req.Name,
		IsActive:  true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&client); result.Error != nil {
		log.Error("Failed to create client", zap.Error(result.Error))
		return respondError(c, apperr.Internal("failed to create client", result.Error))
	}

	log.Info("Client created",
		zap.String("name", client.Name),
		zap.Uint("id", client.ID))

	return respond(c, http.StatusCreated, client)
}

// ListClients returns the clients visible in the principal's scope
func ListClients(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var clients []model.Client
	query := scope.ForPrincipal(principal).Apply(database.GetDB().Model(&model.Client{}))
	if err := query.Order("name").Find(&clients).Error; err != nil {
		return respondError(c, apperr.Internal("failed to list clients", err))
	}

	return respond(c, http.StatusOK, clients)
}

// UpdateClient renames or deactivates a client. Entries keep the client
// name they were logged under.
func UpdateClient(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !authz.CanManageCompany(principal) {
		return respondError(c, apperr.Forbidden("not allowed to manage clients"))
	}

	clientID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var client model.Client
	if err := database.GetDB().First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperr.NotFound("client not found"))
		}
		return respondError(c, apperr.Internal("failed to load client", err))
	}
	if !scope.ForPrincipal(principal).Contains(client.CompanyID) {
		return respondError(c, apperr.NotFound("client not found"))
	}

	var req struct {
		Name     *string `json:"name"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return respondError(c, apperr.Invalid("name cannot be empty"))
		}
		updates["name"] = *req.Name
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if len(updates) > 0 {
		if err := database.GetDB().Model(&client).Updates(updates).Error; err != nil {
			log.Error("Failed to update client", zap.Error(err))
			return respondError(c, apperr.Internal("failed to update client", err))
		}
	}

	return respond(c, http.StatusOK, client)
}
