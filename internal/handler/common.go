package handler

import (
	"strconv"

	"github.com/ReyPJ/syncserv/internal/middleware"
	"github.com/ReyPJ/syncserv/internal/store"
	"github.com/ReyPJ/syncserv/pkg/database"
	"github.com/labstack/echo/v4"
)

// tenantStore builds a data-access handle bound to the authenticated
// caller's tenant. The second return is false when the request carries
// no tenant context.
func tenantStore(c echo.Context) (*store.Scoped, bool) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return nil, false
	}
	return store.ForTenant(database.GetDB(), tenantID), true
}

// parseID parses the :id route parameter as a positive integer
func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
