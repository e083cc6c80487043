package handler

import (
	"net/http"
	"time"

	"timetracker-service/internal/apperr"
	"timetracker-service/internal/middleware"
	"timetracker-service/internal/model"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateCompany creates a company without a signup flow. Root only.
func CreateCompany(c echo.Context) error {
	log := logger.FromContext(c)

	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !principal.IsRoot() {
		return respondError(c, apperr.Forbidden("root access required"))
	}

	var req struct {
		Name         string `json:"name"`
		PricingLevel string `json:"pricing_level"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.Invalid("invalid request"))
	}
	if req.Name == "" {
		return respondError(c, apperr.Invalid("name is required"))
	}

	pricingLevel := req.PricingLevel
	if pricingLevel == "" {
		pricingLevel = model.PricingOffice
	}
	if !model.ValidPricingLevel(pricingLevel) {
		return respondError(c, apperr.Invalid("unknown pricing level"))
	}

	company := model.Company{
		Name:         req.Name,
		IsActive:     true,
		PricingLevel: pricingLevel,
		MaxMembers:   model.DefaultMaxMembers(pricingLevel),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&company); result.Error != nil {
		log.Error("Failed to create company", zap.Error(result.Error))
		return respondError(c, apperr.Conflict("company name already taken"))
	}

	log.Info("Company created",
		zap.String("name", company.Name),
		zap.Uint("id", company.ID))

	return respond(c, http.StatusCreated, company)
}

// ListCompanies returns every company. Root only.
func ListCompanies(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return respondError(c, apperr.Unauthenticated("authentication required"))
	}
	if !principal.IsRoot() {
		return respondError(c, apperr.Forbidden("root access required"))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var companies []model.Company
	if err := database.GetDB().Order("name").Find(&companies).Error; err != nil {
		return respondError(c, apperr.Internal("failed to list companies", err))
	}

	return respond(c, http.StatusOK, companies)
}
