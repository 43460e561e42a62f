package models

import "time"

// Event categories assigned by the classifier.
const (
	EventTypeMessage = "message"
	EventTypeStatus  = "status"
	EventTypeOther   = "other"
)

// EventLog stores one accepted webhook delivery together with deduplication
// metadata for idempotent processing. Rows are append-only: ingress creates
// them, the materializer flips Processed exactly once, nothing deletes them.
type EventLog struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	TenantID        uint       `gorm:"not null;index:ux_event_logs_tenant_dedup,unique,priority:1;index:idx_event_logs_tenant_account,priority:1" json:"tenant_id"`
	AccountID       string     `gorm:"type:varchar(64);not null;index:idx_event_logs_tenant_account,priority:2" json:"account_id"`
	ObjectID        string     `gorm:"type:varchar(191);not null;default:''" json:"object_id"`
	EventType       string     `gorm:"type:varchar(20);not null;index" json:"event_type"`
	EventTimestamp  time.Time  `gorm:"not null;index:idx_event_logs_ts_id,priority:1" json:"event_timestamp"`
	Payload         string     `gorm:"type:longtext;not null" json:"payload"`
	SignatureHeader string     `gorm:"type:varchar(191);not null;default:''" json:"-"`
	DedupKey        string     `gorm:"type:varchar(191);not null;index:ux_event_logs_tenant_dedup,unique,priority:2" json:"dedup_key"`
	Processed       bool       `gorm:"default:false;index" json:"processed"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	Active          bool       `gorm:"default:true" json:"active"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
