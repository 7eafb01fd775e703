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

// ClienteRequest defines the structure for cliente creation/update requests
type ClienteRequest struct {
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
	Notas     string `json:"notas"`
}

func (r *ClienteRequest) apply(cliente *model.Cliente) {
	cliente.Nombre = r.Nombre
	cliente.Email = r.Email
	cliente.Telefono = r.Telefono
	cliente.Direccion = r.Direccion
	cliente.Notas = r.Notas
}

// ListClientes retrieves all clientes belonging to the caller's tenant
func ListClientes(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("cliente", "list")

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var clientes []model.Cliente
	if err := s.FindMany(&clientes, store.OrderBy("nombre asc")); err != nil {
		log.Error("Failed to fetch clientes", zap.Uint("tenant_id", s.TenantID()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch clientes"})
	}

	return c.JSON(http.StatusOK, clientes)
}

// GetCliente retrieves a cliente by ID within the caller's tenant
func GetCliente(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("cliente", "get")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid cliente ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid cliente ID"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var cliente model.Cliente
	if err := s.FindByID(&cliente, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Cliente not found"})
		}
		log.Error("Failed to fetch cliente", zap.Uint("cliente_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch cliente"})
	}

	return c.JSON(http.StatusOK, cliente)
}

// CreateCliente creates a new cliente stamped with the caller's tenant
func CreateCliente(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("cliente", "create")

	var req ClienteRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var cliente model.Cliente
	req.apply(&cliente)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.Create(&cliente); err != nil {
		log.Error("Failed to create cliente", zap.Uint("tenant_id", s.TenantID()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create cliente"})
	}

	log.Info("Cliente created",
		zap.Uint("cliente_id", cliente.ID),
		zap.Uint("tenant_id", cliente.TenantID))
	return c.JSON(http.StatusOK, cliente)
}

// UpsertCliente updates the cliente with the given ID, creating it
// with that ID when it does not exist yet (sync compatibility)
func UpsertCliente(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("cliente", "upsert")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid cliente ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid cliente ID"})
	}

	var req ClienteRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var cliente model.Cliente
	err = s.FindByID(&cliente, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		cliente = model.Cliente{ID: id}
		req.apply(&cliente)
		if err := s.Create(&cliente); err != nil {
			log.Error("Failed to create cliente on upsert", zap.Uint("cliente_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update cliente"})
		}
	case err != nil:
		log.Error("Failed to fetch cliente for upsert", zap.Uint("cliente_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update cliente"})
	default:
		req.apply(&cliente)
		if err := s.Update(&cliente); err != nil {
			log.Error("Failed to update cliente", zap.Uint("cliente_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update cliente"})
		}
	}

	log.Info("Cliente upserted",
		zap.Uint("cliente_id", cliente.ID),
		zap.Uint("tenant_id", cliente.TenantID))
	return c.JSON(http.StatusOK, cliente)
}

// DeleteCliente removes a cliente by ID within the caller's tenant
func DeleteCliente(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("cliente", "delete")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid cliente ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid cliente ID"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := s.DeleteByID(&model.Cliente{}, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Cliente not found"})
		}
		log.Error("Failed to delete cliente", zap.Uint("cliente_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete cliente"})
	}

	log.Info("Cliente deleted", zap.Uint("cliente_id", id), zap.Uint("tenant_id", s.TenantID()))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Cliente deleted"})
}
