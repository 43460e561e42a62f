package models

import "time"

const (
	MessageDirectionInbound  = "inbound"
	MessageDirectionOutbound = "outbound"
)

// Message statuses. Inbound messages start at delivered; the remaining
// values arrive through provider status callbacks.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

// Message records one message of a conversation. Status callbacks mutate
// Status in place via the provider message id; everything else is immutable
// after insert. ProviderMessageID is nil when the provider sent none; the
// unique key only applies to non-null values.
type Message struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TenantID          uint      `gorm:"not null;index:ux_messages_tenant_provider,unique,priority:1" json:"tenant_id"`
	ConversationID    uint      `gorm:"not null;index" json:"conversation_id"`
	ContactID         uint      `gorm:"not null;index" json:"contact_id"`
	AccountID         string    `gorm:"type:varchar(64);not null" json:"account_id"`
	Direction         string    `gorm:"type:varchar(10);not null" json:"direction"`
	Status            string    `gorm:"type:varchar(20);not null;default:'delivered'" json:"status"`
	Content           string    `gorm:"type:text" json:"content"`
	MediaType         string    `gorm:"type:varchar(20);not null;default:''" json:"media_type,omitempty"`
	MediaID           string    `gorm:"type:varchar(191);not null;default:''" json:"media_id,omitempty"`
	MediaURL          string    `gorm:"type:varchar(512);not null;default:''" json:"media_url,omitempty"`
	MediaMimeType     string    `gorm:"type:varchar(100);not null;default:''" json:"media_mime_type,omitempty"`
	ProviderMessageID *string   `gorm:"type:varchar(191);index:ux_messages_tenant_provider,unique,priority:2" json:"provider_message_id,omitempty"`
	SentAt            time.Time `gorm:"not null" json:"sent_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasMedia reports whether the message carries a media attachment.
func (m *Message) HasMedia() bool {
	return m.MediaType != ""
}
