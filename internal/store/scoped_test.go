package store

import (
	"testing"

	"github.com/ReyPJ/syncserv/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunDB opens a GORM handle that builds SQL without touching a
// server. pgx defers connecting until the first real query, which a
// dry-run session never issues.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:                   true,
		DisableAutomaticPing:     true,
		SkipDefaultTransaction:   true,
		DisableNestedTransaction: true,
		Logger:                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestScope_ReadsCarryTenantPredicate(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	var clientes []model.Cliente
	stmt := s.scope().Find(&clientes).Statement

	assert.Contains(t, stmt.SQL.String(), "tenant_id")
	assert.Contains(t, stmt.Vars, interface{}(uint(7)))
}

func TestScope_CombinesCallerPredicateWithTenant(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	var cliente model.Cliente
	stmt := s.scope().Where("id = ?", uint(3)).First(&cliente).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "tenant_id")
	assert.Contains(t, sql, "id")
	assert.Contains(t, stmt.Vars, interface{}(uint(7)))
	assert.Contains(t, stmt.Vars, interface{}(uint(3)))
}

func TestScope_AppliesOrdering(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	var clientes []model.Cliente
	stmt := s.scope(OrderBy("nombre asc")).Find(&clientes).Statement

	assert.Contains(t, stmt.SQL.String(), "nombre asc")
}

func TestCreate_StampsBoundTenant(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	// A caller-supplied tenant id must be overridden
	cliente := model.Cliente{Nombre: "Acme", TenantID: 999}
	require.NoError(t, s.Create(&cliente))

	assert.Equal(t, uint(7), cliente.TenantID)
}

func TestCreate_StampsWhenNoTenantSupplied(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	kase := model.Case{ClienteID: 1}
	require.NoError(t, s.Create(&kase))

	assert.Equal(t, uint(7), kase.TenantID)
}

func TestUpdate_NoMatchingRowIsNotFound(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	// A dry-run update touches zero rows, which is exactly what a
	// tenant-qualified predicate yields for a row owned by someone
	// else. The wrapper must surface not-found, never the row.
	cliente := model.Cliente{ID: 3, Nombre: "Acme"}
	err := s.Update(&cliente)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_RestampsTenant(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	cliente := model.Cliente{ID: 3, TenantID: 999}
	_ = s.Update(&cliente)

	assert.Equal(t, uint(7), cliente.TenantID)
}

func TestDeleteByID_NoMatchingRowIsNotFound(t *testing.T) {
	s := ForTenant(dryRunDB(t), 7)

	err := s.DeleteByID(&model.Cliente{}, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenantID(t *testing.T) {
	s := ForTenant(dryRunDB(t), 12)
	assert.Equal(t, uint(12), s.TenantID())
}
