package model

import (
	"time"
)

// Tenant represents an account boundary. Every business row in the
// system belongs to exactly one tenant, and the tenant record itself
// carries the login credentials.
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(100);not null"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
