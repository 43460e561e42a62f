package models

import "time"

// Conversation pairs a contact with the inbound account it talks to and
// caches the latest message preview for list views. One row per
// (tenant, contact, account).
type Conversation struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	TenantID           uint       `gorm:"not null;index:ux_conversations_tenant_contact_account,unique,priority:1" json:"tenant_id"`
	ContactID          uint       `gorm:"not null;index:ux_conversations_tenant_contact_account,unique,priority:2" json:"contact_id"`
	Contact            Contact    `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	AccountID          string     `gorm:"type:varchar(64);not null;index:ux_conversations_tenant_contact_account,unique,priority:3" json:"account_id"`
	LastMessagePreview string     `gorm:"type:varchar(255);not null;default:''" json:"last_message_preview"`
	LastMessageAt      *time.Time `gorm:"type:timestamp;default:null" json:"last_message_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
