package models

import "time"

// Contact is an external party reachable at a phone address, scoped to a
// tenant. The materializer upserts it from the contact block of message
// events; a later event with a changed display name updates Name in place.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;index:ux_contacts_tenant_phone,unique,priority:1" json:"tenant_id"`
	Phone     string    `gorm:"type:varchar(32);not null;index:ux_contacts_tenant_phone,unique,priority:2" json:"phone"`
	Name      string    `gorm:"type:varchar(150);not null;default:''" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
