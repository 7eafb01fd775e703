package store

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches within the tenant's
// partition. Rows owned by other tenants surface as this same error,
// so callers cannot distinguish "absent" from "not yours".
var ErrNotFound = gorm.ErrRecordNotFound

// TenantOwned is implemented by every model that carries a tenant_id
// column. Create and Update stamp the bound tenant through it.
type TenantOwned interface {
	SetTenantID(id uint)
}

// QueryOption customizes a scoped read (eager loading, ordering).
type QueryOption func(tx *gorm.DB) *gorm.DB

// Preload eagerly loads the named association on read operations
func Preload(association string, args ...interface{}) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Preload(association, args...)
	}
}

// OrderBy applies an ordering clause to list operations
func OrderBy(expr string) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(expr)
	}
}

// Scoped is a data-access handle bound to exactly one tenant for the
// duration of a request. Every read it performs ANDs a tenant_id
// predicate into the query and every write stamps the bound tenant id,
// so route handlers cannot forget the tenant filter: it is applied
// here, not at the call site.
type Scoped struct {
	db       *gorm.DB
	tenantID uint
}

// ForTenant returns a data-access handle bound to the given tenant
func ForTenant(db *gorm.DB, tenantID uint) *Scoped {
	return &Scoped{db: db, tenantID: tenantID}
}

// TenantID returns the tenant the handle is bound to
func (s *Scoped) TenantID() uint {
	return s.tenantID
}

// scope starts a query constrained to the bound tenant and applies
// any caller options on top.
func (s *Scoped) scope(opts ...QueryOption) *gorm.DB {
	tx := s.db.Where("tenant_id = ?", s.tenantID)
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

// FindMany retrieves all rows of dest's type belonging to the tenant
func (s *Scoped) FindMany(dest interface{}, opts ...QueryOption) error {
	return s.scope(opts...).Find(dest).Error
}

// FindFirst retrieves the first matching row belonging to the tenant
func (s *Scoped) FindFirst(dest interface{}, opts ...QueryOption) error {
	err := s.scope(opts...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// FindByID retrieves the row with the given id, provided it belongs
// to the tenant. A row owned by another tenant yields ErrNotFound.
func (s *Scoped) FindByID(dest interface{}, id uint, opts ...QueryOption) error {
	err := s.scope(opts...).Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Create persists a new row stamped with the bound tenant id. Any
// tenant id already present on the row is overwritten. Associated
// child rows are created in the same store transaction.
func (s *Scoped) Create(row TenantOwned) error {
	row.SetTenantID(s.tenantID)
	return s.db.Create(row).Error
}

// Update persists changes to an existing row. The tenant predicate is
// ANDed into the update condition, so a row owned by another tenant is
// never touched and surfaces as ErrNotFound.
func (s *Scoped) Update(row TenantOwned) error {
	row.SetTenantID(s.tenantID)
	result := s.db.Where("tenant_id = ?", s.tenantID).Save(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes the row with the given id if it belongs to the
// tenant; otherwise ErrNotFound.
func (s *Scoped) DeleteByID(m interface{}, id uint) error {
	result := s.db.Where("tenant_id = ?", s.tenantID).Where("id = ?", id).Delete(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChildren removes dependent rows keyed by a parent column, for
// collections that carry no tenant_id of their own (invoice items).
// Meant to run inside Transaction together with the parent delete.
func (s *Scoped) DeleteChildren(m interface{}, parentColumn string, parentID uint) error {
	return s.db.Where(parentColumn+" = ?", parentID).Delete(m).Error
}

// Transaction runs fn with a handle bound to the same tenant whose
// operations all execute in a single store transaction.
func (s *Scoped) Transaction(fn func(tx *Scoped) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Scoped{db: tx, tenantID: s.tenantID})
	})
}
