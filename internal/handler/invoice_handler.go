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

// InvoiceItemRequest defines one embedded line item on invoice creation
type InvoiceItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// InvoiceRequest defines the structure for invoice creation/update
// requests. Items are separated from the invoice fields before
// persistence: they are created atomically with the invoice and left
// untouched on updates.
type InvoiceRequest struct {
	CaseID    uint                 `json:"caseId"`
	Number    string               `json:"number"`
	Status    string               `json:"status"`
	IssueDate time.Time            `json:"issueDate"`
	DueDate   *time.Time           `json:"dueDate"`
	Total     float64              `json:"total"`
	Items     []InvoiceItemRequest `json:"items"`
}

func (r *InvoiceRequest) apply(invoice *model.Invoice) {
	invoice.CaseID = r.CaseID
	invoice.Number = r.Number
	invoice.Status = r.Status
	invoice.IssueDate = r.IssueDate
	invoice.DueDate = r.DueDate
	invoice.Total = r.Total
}

func (r *InvoiceRequest) items() []model.InvoiceItem {
	if len(r.Items) == 0 {
		return nil
	}
	items := make([]model.InvoiceItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, model.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return items
}

// invoiceIncludes are the eager loads every invoice read embeds
func invoiceIncludes() []store.QueryOption {
	return []store.QueryOption{
		store.Preload("Case.Cliente"),
		store.Preload("Items"),
	}
}

// ListInvoices retrieves all invoices of the caller's tenant with
// their case, cliente and line items embedded
func ListInvoices(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("invoice", "list")

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var invoices []model.Invoice
	opts := append(invoiceIncludes(), store.OrderBy("issue_date desc"))
	if err := s.FindMany(&invoices, opts...); err != nil {
		log.Error("Failed to fetch invoices", zap.Uint("tenant_id", s.TenantID()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch invoices"})
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves an invoice by ID with its relations embedded
func GetInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("invoice", "get")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var invoice model.Invoice
	if err := s.FindByID(&invoice, id, invoiceIncludes()...); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
		}
		log.Error("Failed to fetch invoice", zap.Uint("invoice_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch invoice"})
	}

	return c.JSON(http.StatusOK, invoice)
}

// CreateInvoice creates a new invoice together with its embedded line
// items in a single store transaction
func CreateInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("invoice", "create")

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var invoice model.Invoice
	req.apply(&invoice)
	invoice.Items = req.items()

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.Create(&invoice); err != nil {
		log.Error("Failed to create invoice", zap.Uint("tenant_id", s.TenantID()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create invoice"})
	}

	// Reload with relations embedded for the response
	if err := s.FindByID(&invoice, invoice.ID, invoiceIncludes()...); err != nil {
		log.Error("Failed to reload invoice", zap.Uint("invoice_id", invoice.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create invoice"})
	}

	log.Info("Invoice created",
		zap.Uint("invoice_id", invoice.ID),
		zap.Int("items", len(invoice.Items)),
		zap.Uint("tenant_id", invoice.TenantID))
	return c.JSON(http.StatusOK, invoice)
}

// UpsertInvoice updates the invoice with the given ID, creating it
// with that ID when it does not exist yet (sync compatibility). Line
// items in the payload are ignored: updates never touch the dependent
// collection.
func UpsertInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("invoice", "upsert")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	var req InvoiceRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var invoice model.Invoice
	err = s.FindByID(&invoice, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		invoice = model.Invoice{ID: id}
		req.apply(&invoice)
		if err := s.Create(&invoice); err != nil {
			log.Error("Failed to create invoice on upsert", zap.Uint("invoice_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update invoice"})
		}
	case err != nil:
		log.Error("Failed to fetch invoice for upsert", zap.Uint("invoice_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update invoice"})
	default:
		req.apply(&invoice)
		if err := s.Update(&invoice); err != nil {
			log.Error("Failed to update invoice", zap.Uint("invoice_id", id), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update invoice"})
		}
	}

	// Reload with relations embedded for the response
	if err := s.FindByID(&invoice, invoice.ID, invoiceIncludes()...); err != nil {
		log.Error("Failed to reload invoice", zap.Uint("invoice_id", invoice.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update invoice"})
	}

	log.Info("Invoice upserted",
		zap.Uint("invoice_id", invoice.ID),
		zap.Uint("tenant_id", invoice.TenantID))
	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice removes an invoice and its line items in a single
// store transaction
func DeleteInvoice(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("invoice", "delete")

	id, err := parseID(c)
	if err != nil {
		log.Warn("Invalid invoice ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}

	s, ok := tenantStore(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = s.Transaction(func(tx *store.Scoped) error {
		var invoice model.Invoice
		if err := tx.FindByID(&invoice, id); err != nil {
			return err
		}
		if err := tx.DeleteChildren(&model.InvoiceItem{}, "invoice_id", id); err != nil {
			return err
		}
		return tx.DeleteByID(&model.Invoice{}, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
		}
		log.Error("Failed to delete invoice", zap.Uint("invoice_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete invoice"})
	}

	log.Info("Invoice deleted", zap.Uint("invoice_id", id), zap.Uint("tenant_id", s.TenantID()))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Invoice deleted"})
}
