package ingest

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chatriver/chatriver/app/models"
)

// Repository provides the DB operations used by the ingest service and the
// materializer.
type Repository interface {
	FindConfigByAccount(accountID string) (*models.WebhookConfig, error)
	FindConfigByPath(callbackPath string) (*models.WebhookConfig, error)
	CreateEventIfNotExists(event *models.EventLog) (bool, *models.EventLog, error)
	GetEvent(id uint) (*models.EventLog, error)
	ListEvents(tenantID uint, accountID string, processed *bool, after *Cursor, limit int) ([]models.EventLog, error)
	ListUnprocessedBefore(cutoff time.Time, limit int) ([]models.EventLog, error)
	MarkEventProcessed(id uint) error
	RecordProcessingError(id uint, message string) error
	UpsertContact(contact *models.Contact) error
	UpsertConversation(conversation *models.Conversation) error
	CreateMessage(message *models.Message) error
	UpdateMessageStatus(tenantID uint, providerMessageID, status string) (int64, error)
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an ingest repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindConfigByAccount(accountID string) (*models.WebhookConfig, error) {
	var cfg models.WebhookConfig
	err := r.db.Where("account_id = ?", accountID).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *gormRepository) FindConfigByPath(callbackPath string) (*models.WebhookConfig, error) {
	var cfg models.WebhookConfig
	err := r.db.Where("callback_path = ?", callbackPath).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *gormRepository) CreateEventIfNotExists(event *models.EventLog) (bool, *models.EventLog, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "dedup_key"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.EventLog
	if err := r.db.Where("tenant_id = ? AND dedup_key = ?", event.TenantID, event.DedupKey).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetEvent(id uint) (*models.EventLog, error) {
	var event models.EventLog
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) ListEvents(tenantID uint, accountID string, processed *bool, after *Cursor, limit int) ([]models.EventLog, error) {
	q := r.db.Where("tenant_id = ? AND account_id = ?", tenantID, accountID)
	if processed != nil {
		q = q.Where("processed = ?", *processed)
	}
	if after != nil {
		// Strict tuple comparison keeps pages stable under concurrent inserts.
		q = q.Where("(event_timestamp < ?) OR (event_timestamp = ? AND id < ?)",
			after.Time(), after.Time(), after.ID)
	}

	var events []models.EventLog
	err := q.Order("event_timestamp DESC, id DESC").Limit(limit).Find(&events).Error
	return events, err
}

func (r *gormRepository) ListUnprocessedBefore(cutoff time.Time, limit int) ([]models.EventLog, error) {
	var events []models.EventLog
	err := r.db.Where("processed = ? AND created_at < ?", false, cutoff).
		Order("id ASC").Limit(limit).Find(&events).Error
	return events, err
}

func (r *gormRepository) MarkEventProcessed(id uint) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed":        true,
		"processed_at":     &now,
		"processing_error": "",
	}
	return r.db.Model(&models.EventLog{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) RecordProcessingError(id uint, message string) error {
	return r.db.Model(&models.EventLog{}).Where("id = ?", id).
		Update("processing_error", message).Error
}

func (r *gormRepository) UpsertContact(contact *models.Contact) error {
	// Events without a contacts block carry no display name; an empty name
	// must not wipe one learned from an earlier event.
	columns := []string{"updated_at"}
	if contact.Name != "" {
		columns = append(columns, "name")
	}

	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "phone"},
		},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(contact).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("tenant_id = ? AND phone = ?", contact.TenantID, contact.Phone).
		First(contact).Error
}

func (r *gormRepository) UpsertConversation(conversation *models.Conversation) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "contact_id"},
			{Name: "account_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_message_preview",
			"last_message_at",
			"updated_at",
		}),
	}).Create(conversation).Error; err != nil {
		return err
	}

	return r.db.Where("tenant_id = ? AND contact_id = ? AND account_id = ?",
		conversation.TenantID, conversation.ContactID, conversation.AccountID).
		First(conversation).Error
}

func (r *gormRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *gormRepository) UpdateMessageStatus(tenantID uint, providerMessageID, status string) (int64, error) {
	tx := r.db.Model(&models.Message{}).
		Where("tenant_id = ? AND provider_message_id = ?", tenantID, providerMessageID).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
