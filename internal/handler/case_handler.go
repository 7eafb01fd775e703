package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/ReyPJ/syncserv/internal/model"
	"github.com/ReyPJ/syncserv/internal/store"
	"github.com/ReyPJ/syncserv/pkg/logger"
	"github.com/ReyPJ/syncserv/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CaseRequest defines the structure for case creation/update requests.
// The referenced cliente is expected to belong to the same tenant; the
// reference itself is not re-verified here, only the case row's own
// tenant stamp is enforced.
type CaseRequest struct {
	ClienteID   uint       `json:"clienteId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

func (r *CaseRequest) apply(kase *model.Case) {
	kase.ClienteID = r.ClienteID
	kase.Title = r.Title
	kase.Description = r.Description
	kase.Status = r.Status
	kase.StartDate = r.StartDate
	kase.EndDate = r.EndDate
}

// ListCases retrieves all cases of the caller's tenant with their
// clientes embedded
func ListCases(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("case", "list")

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var cases []model.Case
	if err := s.FindMany(&cases, store.Preload("Cliente"), store.OrderBy("start_date desc")); err != nil {
		log.Error("Failed to fetch cases", zap.Uint("tenant_id", s.TenantID()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch cases"})
	}

	return c.JSON(http.StatusOK, cases)
}

// GetCase retrieves a case by ID with its cliente and invoices embedded
func GetCase(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("case", "get")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid case ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid case ID"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var kase model.Case
	if err := s.FindByID(&kase, id, store.Preload("Cliente"), store.Preload("Invoices")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Case not found"})
		}
		log.Error("Failed to fetch case", zap.Uint("case_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch case"})
	}

	return c.JSON(http.StatusOK, kase)
}

// CreateCase creates a new case stamped with the caller's tenant and
// returns it with the cliente embedded
func CreateCase(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("case", "create")

	var req CaseRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var kase model.Case
	req.apply(&kase)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.Create(&kase); err != nil {
		log.Error("Failed to create case", zap.Uint("tenant_id", s.TenantID()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create case"})
	}

	// Reload with the cliente embedded for the response
	if err := s.FindByID(&kase, kase.ID, store.Preload("Cliente")); err != nil {
		log.Error("Failed to reload case", zap.Uint("case_id", kase.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create case"})
	}

	log.Info("Case created",
		zap.Uint("case_id", kase.ID),
		zap.Uint("tenant_id", kase.TenantID))
	return c.JSON(http.StatusOK, kase)
}

// UpsertCase updates the case with the given ID, creating it with
// that ID when it does not exist yet (sync compatibility)
func UpsertCase(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("case", "upsert")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid case ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid case ID"})
	}

	var req CaseRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var kase model.Case
	err = s.FindByID(&kase, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		kase = model.Case{ID: id}
		req.apply(&kase)
		if err := s.Create(&kase); err != nil {
			log.Error("Failed to create case on upsert", zap.Uint("case_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update case"})
		}
	case err != nil:
		log.Error("Failed to fetch case for upsert", zap.Uint("case_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update case"})
	default:
		req.apply(&kase)
		if err := s.Update(&kase); err != nil {
			log.Error("Failed to update case", zap.Uint("case_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update case"})
		}
	}

	// Reload with the cliente embedded for the response
	if err := s.FindByID(&kase, kase.ID, store.Preload("Cliente")); err != nil {
		log.Error("Failed to reload case", zap.Uint("case_id", kase.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update case"})
	}

	log.Info("Case upserted",
		zap.Uint("case_id", kase.ID),
		zap.Uint("tenant_id", kase.TenantID))
	return c.JSON(http.StatusOK, kase)
}

// DeleteCase removes a case by ID within the caller's tenant
func DeleteCase(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("case", "delete")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid case ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid case ID"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := s.DeleteByID(&model.Case{}, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Case not found"})
		}
		log.Error("Failed to delete case", zap.Uint("case_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete case"})
	}

	log.Info("Case deleted", zap.Uint("case_id", id), zap.Uint("tenant_id", s.TenantID()))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Case deleted"})
}
