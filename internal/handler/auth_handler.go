package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ReyPJ/syncserv/internal/model"
	"github.com/ReyPJ/syncserv/pkg/database"
	"github.com/ReyPJ/syncserv/pkg/jwtutil"
	"github.com/ReyPJ/syncserv/pkg/logger"
	"github.com/ReyPJ/syncserv/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	jwtUtil *jwtutil.JWTUtil

	// echoErrorDetail gates whether internal error messages are sent
	// back to clients. Enabled outside production only.
	echoErrorDetail bool
)

// Init wires the handler package with its collaborators
func Init(util *jwtutil.JWTUtil, production bool) {
	jwtUtil = util
	echoErrorDetail = !production
}

// tenantResponse builds the user object returned by register and login
func tenantResponse(tenant *model.Tenant, token string) echo.Map {
	return echo.Map{
		"id":       tenant.ID,
		"email":    tenant.Email,
		"name":     tenant.Name,
		"tenantId": tenant.ID,
		"token":    token,
	}
}

// Register creates a new tenant account and returns a session token
func Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Warn("Incomplete registration data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Email and password are required"})
	}

	// Check if a tenant with this email already exists
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.Tenant
	result := database.GetDB().Where("email = ?", req.Email).First(&existing)
	if result.Error == nil {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email already registered"})
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Error("Failed to look up tenant", zap.Error(result.Error))
		prometheus.RecordAuthError("db_error")
		return registrationFailed(c, result.Error)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return registrationFailed(c, err)
	}

	// Create tenant
	tenant := model.Tenant{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tenant); result.Error != nil {
		log.Error("Failed to create tenant", zap.Error(result.Error))
		prometheus.RecordAuthError("tenant_creation_failed")
		return registrationFailed(c, result.Error)
	}

	// Generate token
	token, err := jwtUtil.GenerateToken(tenant.ID, tenant.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return registrationFailed(c, err)
	}

	log.Info("Tenant registered", zap.Uint("tenant_id", tenant.ID), zap.String("email", tenant.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    tenantResponse(&tenant, token),
		"token":   token,
	})
}

// registrationFailed maps an internal registration error to the HTTP
// surface, echoing detail only outside production
func registrationFailed(c echo.Context, err error) error {
	response := echo.Map{
		"success": false,
		"message": "Registration failed",
	}
	if echoErrorDetail {
		response["error"] = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, response)
}

// Login authenticates a tenant by email and password. Unknown email
// and wrong password produce identical responses so accounts cannot
// be enumerated.
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request"})
	}

	// Find tenant
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	result := database.GetDB().Where("email = ?", req.Email).First(&tenant)
	if result.Error != nil {
		log.Warn("Login for unknown email", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Invalid credentials"})
	}

	// Generate token
	token, err := jwtUtil.GenerateToken(tenant.ID, tenant.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Login failed"})
	}

	log.Info("Tenant logged in", zap.Uint("tenant_id", tenant.ID), zap.String("email", tenant.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    tenantResponse(&tenant, token),
		"token":   token,
	})
}

// Verify checks the validity of the bearer token without any side
// effects. Validity is purely cryptographic plus expiry; there is no
// server-side session state.
func Verify(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if _, err := jwtUtil.ValidateToken(tokenString); err != nil {
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false})
	}

	return c.JSON(http.StatusOK, echo.Map{"valid": true})
}
