package model

import (
	"time"
)

// Cliente represents a client of the practice, owned by one tenant
type Cliente struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenantId" gorm:"index;not null"`
	Nombre    string    `json:"nombre" gorm:"type:varchar(100);index;not null"`
	Email     string    `json:"email" gorm:"type:varchar(100)"`
	Telefono  string    `json:"telefono" gorm:"type:varchar(30)"`
	Direccion string    `json:"direccion" gorm:"type:text"`
	Notas     string    `json:"notas" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetTenantID stamps the owning tenant on the row
func (c *Cliente) SetTenantID(id uint) {
	c.TenantID = id
}
