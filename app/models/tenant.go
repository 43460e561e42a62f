package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Tenant is the partition key for every row this service writes. Tenant
// lifecycle (signup, plans, suspension) is owned by the account service;
// the ingest core only reads it.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status" validate:"oneof=active suspended"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// IsActive reports whether the tenant may receive webhook traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
