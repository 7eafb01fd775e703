package model

import (
	"time"
)

// Invoice represents a bill issued against a case. Line items are a
// dependent collection created atomically with the invoice.
type Invoice struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	TenantID  uint       `json:"tenantId" gorm:"index;not null"`
	CaseID    uint       `json:"caseId" gorm:"index;not null"`
	Number    string     `json:"number" gorm:"type:varchar(50)"`
	Status    string     `json:"status" gorm:"type:varchar(30);default:'draft'"`
	IssueDate time.Time  `json:"issueDate"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	Case  *Case         `json:"case,omitempty" gorm:"foreignKey:CaseID"`
	Items []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

// SetTenantID stamps the owning tenant on the row
func (i *Invoice) SetTenantID(id uint) {
	i.TenantID = id
}

// InvoiceItem is a line item belonging to one invoice. It exists only
// as a child of the invoice and is removed together with it.
type InvoiceItem struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	InvoiceID   uint    `json:"invoiceId" gorm:"index;not null"`
	Description string  `json:"description" gorm:"type:text"`
	Quantity    float64 `json:"quantity" gorm:"default:1"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}
