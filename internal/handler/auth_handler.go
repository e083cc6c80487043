package handler

import (
	"net/http"
	"time"

	"timetracker-service/internal/model"
	"timetracker-service/pkg/database"
	"timetracker-service/pkg/jwtutil"
	"timetracker-service/pkg/logger"
	"timetracker-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register handles company signup: it creates the company and its first
// user, a super_admin, in one transaction.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		Name         string `json:"name"`
		CompanyName  string `json:"company_name"`
		PricingLevel string `json:"pricing_level"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.CompanyName == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "email, password and company_name are required"})
	}

	pricingLevel := req.PricingLevel
	if pricingLevel == "" {
		pricingLevel = model.PricingOffice
	}
	if !model.ValidPricingLevel(pricingLevel) {
		prometheus.RecordAuthError("invalid_pricing_level")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "unknown pricing level"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "registration failed"})
	}

	var user model.User
	var company model.Company

	// Create the company and its super_admin atomically
	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		company = model.Company{
			Name:         req.CompanyName,
			IsActive:     true,
			PricingLevel: pricingLevel,
			MaxMembers:   model.DefaultMaxMembers(pricingLevel),
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		user = model.User{
			Email:     req.Email,
			Password:  string(hashedPassword),
			Name:      req.Name,
			Role:      model.RoleSuperAdmin,
			CompanyID: &company.ID,
			Active:    true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Error("Failed to register company", zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "email or company name already registered"})
	}

	log.Info("Company registered",
		zap.String("company", company.Name),
		zap.Uint("company_id", company.ID),
		zap.String("email", user.Email))

	return respondMessage(c, http.StatusCreated, echo.Map{
		"user":    user,
		"company": company,
	}, "registered successfully")
}

// Login authenticates a user and issues a bearer token
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request"})
	}

	// Find user in database
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid credentials"})
	}

	if !user.Active {
		log.Warn("Inactive user attempted login", zap.String("email", req.Email))
		prometheus.RecordAuthError("inactive_user")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "account is deactivated"})
	}

	// Resolve company name for the token
	var companyName string
	if user.CompanyID != nil {
		var company model.Company
		if result := database.GetDB().Select("name", "is_active").First(&company, *user.CompanyID); result.Error == nil {
			if !company.IsActive {
				log.Warn("User of inactive company attempted login",
					zap.String("email", req.Email),
					zap.Uint("company_id", *user.CompanyID))
				prometheus.RecordAuthError("inactive_company")
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "company is deactivated"})
			}
			companyName = company.Name
		}
	}

	// Generate JWT token
	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.CompanyID, companyName, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return respond(c, http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}
