package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ReyPJ/syncserv/internal/middleware"
	"github.com/ReyPJ/syncserv/internal/model"
	"github.com/ReyPJ/syncserv/pkg/database"
	"github.com/ReyPJ/syncserv/pkg/jwtutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer wires the full route surface against a real Postgres
// database. Set TEST_DATABASE_DSN to run these tests, e.g.
// "host=localhost user=postgres password=password dbname=syncserv_test sslmode=disable".
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping integration tests")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.Cliente{},
		&model.Case{},
		&model.Invoice{},
		&model.InvoiceItem{},
	))

	// Start from a clean slate, children first
	for _, table := range []string{"invoice_items", "invoices", "cases", "clientes", "tenants"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	database.SetDB(db)

	util := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 720,
	})
	Init(util, true)

	e := echo.New()

	auth := e.Group("/api/auth")
	auth.POST("/register", Register)
	auth.POST("/login", Login)
	auth.GET("/verify", Verify)

	authRequired := middleware.JWTAuthMiddleware(util)

	clientes := e.Group("/api/clientes", authRequired)
	clientes.GET("", ListClientes)
	clientes.POST("", CreateCliente)
	clientes.GET("/:id", GetCliente)
	clientes.PUT("/:id", UpsertCliente)
	clientes.DELETE("/:id", DeleteCliente)

	cases := e.Group("/api/cases", authRequired)
	cases.GET("", ListCases)
	cases.POST("", CreateCase)
	cases.GET("/:id", GetCase)
	cases.PUT("/:id", UpsertCase)
	cases.DELETE("/:id", DeleteCase)

	invoices := e.Group("/api/invoices", authRequired)
	invoices.GET("", ListInvoices)
	invoices.POST("", CreateInvoice)
	invoices.GET("/:id", GetInvoice)
	invoices.PUT("/:id", UpsertInvoice)
	invoices.DELETE("/:id", DeleteInvoice)

	return e
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerTenant(t *testing.T, e *echo.Echo, email, password, name string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":%q,"name":%q}`, email, password, name))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestAuthRoundTrip(t *testing.T) {
	e := newTestServer(t)

	token := registerTenant(t, e, "a@x.com", "pw1", "Tenant A")

	rec := doJSON(e, http.MethodGet, "/api/auth/verify", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Duplicate email is rejected
	rec = doJSON(e, http.MethodPost, "/api/auth/register", "",
		`{"email":"a@x.com","password":"other","name":"Dup"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong password and unknown email produce identical responses
	wrongPw := doJSON(e, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"bad"}`)
	unknown := doJSON(e, http.MethodPost, "/api/auth/login", "", `{"email":"nobody@x.com","password":"pw1"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongPw.Body.String(), unknown.Body.String())

	// Correct login works
	rec = doJSON(e, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"pw1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantIsolation(t *testing.T) {
	e := newTestServer(t)

	tokenA := registerTenant(t, e, "a@x.com", "pw1", "Tenant A")
	tokenB := registerTenant(t, e, "b@x.com", "pw2", "Tenant B")

	// A creates a cliente
	rec := doJSON(e, http.MethodPost, "/api/clientes", tokenA, `{"nombre":"Acme"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	path := fmt.Sprintf("/api/clientes/%d", created.ID)

	// B must not see it
	rec = doJSON(e, http.MethodGet, path, tokenB, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// B must not delete it
	rec = doJSON(e, http.MethodDelete, path, tokenB, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A still sees it with the tenant stamp
	rec = doJSON(e, http.MethodGet, path, tokenA, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "Acme", fetched.Nombre)
	assert.Equal(t, created.TenantID, fetched.TenantID)

	// B's list is empty
	rec = doJSON(e, http.MethodGet, "/api/clientes", tokenB, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestCreateStamping(t *testing.T) {
	e := newTestServer(t)

	tokenA := registerTenant(t, e, "a@x.com", "pw1", "Tenant A")
	tokenB := registerTenant(t, e, "b@x.com", "pw2", "Tenant B")

	var claimsA struct {
		User struct {
			TenantID uint `json:"tenantId"`
		} `json:"user"`
	}
	rec := doJSON(e, http.MethodPost, "/api/auth/login", "", `{"email":"a@x.com","password":"pw1"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claimsA))

	// A smuggled tenantId in the payload is overridden by the caller's own
	rec = doJSON(e, http.MethodPost, "/api/clientes", tokenA, `{"nombre":"Acme","tenantId":424242}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, claimsA.User.TenantID, created.TenantID)
	assert.NotEqual(t, uint(424242), created.TenantID)

	// And is invisible to B regardless
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/clientes/%d", created.ID), tokenB, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertShape(t *testing.T) {
	e := newTestServer(t)

	token := registerTenant(t, e, "a@x.com", "pw1", "Tenant A")

	// PUT with an unused id creates the row with that id
	rec := doJSON(e, http.MethodPut, "/api/clientes/5001", token, `{"nombre":"Acme"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, uint(5001), first.ID)
	assert.Equal(t, "Acme", first.Nombre)

	// A second PUT with the same id updates in place
	rec = doJSON(e, http.MethodPut, "/api/clientes/5001", token, `{"nombre":"Acme Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var second model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, uint(5001), second.ID)
	assert.Equal(t, "Acme Renamed", second.Nombre)
	assert.Equal(t, first.TenantID, second.TenantID)

	var count int64
	require.NoError(t, database.GetDB().Model(&model.Cliente{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInvoiceLifecycle(t *testing.T) {
	e := newTestServer(t)

	token := registerTenant(t, e, "a@x.com", "pw1", "Tenant A")

	rec := doJSON(e, http.MethodPost, "/api/clientes", token, `{"nombre":"Acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var cliente model.Cliente
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cliente))

	rec = doJSON(e, http.MethodPost, "/api/cases", token,
		fmt.Sprintf(`{"clienteId":%d,"title":"Contract dispute","startDate":"2026-01-15T00:00:00Z"}`, cliente.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var kase model.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kase))
	require.NotNil(t, kase.Cliente, "case response embeds the cliente")

	// Invoice with embedded items, created atomically
	rec = doJSON(e, http.MethodPost, "/api/invoices", token, fmt.Sprintf(`{
		"caseId": %d,
		"number": "F-2026-001",
		"issueDate": "2026-02-01T00:00:00Z",
		"total": 300,
		"items": [
			{"description": "Consulta", "quantity": 1, "unitPrice": 100, "amount": 100},
			{"description": "Redacción", "quantity": 2, "unitPrice": 100, "amount": 200}
		]
	}`, kase.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var invoice model.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoice))
	require.Len(t, invoice.Items, 2)
	for _, item := range invoice.Items {
		assert.Equal(t, invoice.ID, item.InvoiceID)
	}
	require.NotNil(t, invoice.Case, "invoice response embeds the case")
	require.NotNil(t, invoice.Case.Cliente, "invoice response embeds the case's cliente")

	// Get-by-id embeds the same chain
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/invoices/%d", invoice.ID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Case get-by-id embeds invoices
	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/cases/%d", kase.ID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetchedCase model.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetchedCase))
	assert.Len(t, fetchedCase.Invoices, 1)

	// Deleting the invoice removes its items with it
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/invoices/%d", invoice.ID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var itemCount int64
	require.NoError(t, database.GetDB().Model(&model.InvoiceItem{}).
		Where("invoice_id = ?", invoice.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestHealthEndpointShape(t *testing.T) {
	e := newTestServer(t)
	e.GET("/health", HealthCheck)

	rec := doJSON(e, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.NotEmpty(t, body["timestamp"])
}
