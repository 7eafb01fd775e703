package model

import (
	"time"
)

// Case represents a legal matter opened for a client
type Case struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	TenantID    uint       `json:"tenantId" gorm:"index;not null"`
	ClienteID   uint       `json:"clienteId" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"type:varchar(200)"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"type:varchar(30);default:'open'"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Cliente  *Cliente  `json:"cliente,omitempty" gorm:"foreignKey:ClienteID"`
	Invoices []Invoice `json:"invoices,omitempty" gorm:"foreignKey:CaseID"`
}

// SetTenantID stamps the owning tenant on the row
func (c *Case) SetTenantID(id uint) {
	c.TenantID = id
}
