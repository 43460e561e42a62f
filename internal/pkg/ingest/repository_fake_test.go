package ingest

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/chatriver/chatriver/app/models"
)

// fakeRepository is an in-memory Repository with transaction rollback
// semantics, enough to exercise the service and the materializer without a
// MySQL instance.
type fakeRepository struct {
	configs       []models.WebhookConfig
	events        []models.EventLog
	contacts      []models.Contact
	conversations []models.Conversation
	messages      []models.Message
	nextID        uint

	failCreateMessage bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{nextID: 1}
}

func (r *fakeRepository) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeRepository) addConfig(cfg models.WebhookConfig) models.WebhookConfig {
	cfg.ID = r.id()
	r.configs = append(r.configs, cfg)
	return cfg
}

func (r *fakeRepository) FindConfigByAccount(accountID string) (*models.WebhookConfig, error) {
	for i := range r.configs {
		if r.configs[i].AccountID == accountID {
			cfg := r.configs[i]
			return &cfg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) FindConfigByPath(callbackPath string) (*models.WebhookConfig, error) {
	for i := range r.configs {
		if r.configs[i].CallbackPath == callbackPath {
			cfg := r.configs[i]
			return &cfg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) CreateEventIfNotExists(event *models.EventLog) (bool, *models.EventLog, error) {
	for i := range r.events {
		if r.events[i].TenantID == event.TenantID && r.events[i].DedupKey == event.DedupKey {
			stored := r.events[i]
			return false, &stored, nil
		}
	}
	event.ID = r.id()
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	stored := *event
	return true, &stored, nil
}

func (r *fakeRepository) GetEvent(id uint) (*models.EventLog, error) {
	for i := range r.events {
		if r.events[i].ID == id {
			event := r.events[i]
			return &event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) ListEvents(tenantID uint, accountID string, processed *bool, after *Cursor, limit int) ([]models.EventLog, error) {
	var matched []models.EventLog
	for _, event := range r.events {
		if event.TenantID != tenantID || event.AccountID != accountID {
			continue
		}
		if processed != nil && event.Processed != *processed {
			continue
		}
		if after != nil {
			ts := event.EventTimestamp.Unix()
			if ts > after.EventTimestamp || (ts == after.EventTimestamp && event.ID >= after.ID) {
				continue
			}
		}
		matched = append(matched, event)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].EventTimestamp.Equal(matched[j].EventTimestamp) {
			return matched[i].EventTimestamp.After(matched[j].EventTimestamp)
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeRepository) ListUnprocessedBefore(cutoff time.Time, limit int) ([]models.EventLog, error) {
	var matched []models.EventLog
	for _, event := range r.events {
		if !event.Processed && event.CreatedAt.Before(cutoff) {
			matched = append(matched, event)
		}
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeRepository) MarkEventProcessed(id uint) error {
	for i := range r.events {
		if r.events[i].ID == id {
			now := time.Now()
			r.events[i].Processed = true
			r.events[i].ProcessedAt = &now
			r.events[i].ProcessingError = ""
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) RecordProcessingError(id uint, message string) error {
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].ProcessingError = message
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) UpsertContact(contact *models.Contact) error {
	for i := range r.contacts {
		if r.contacts[i].TenantID == contact.TenantID && r.contacts[i].Phone == contact.Phone {
			if contact.Name != "" {
				r.contacts[i].Name = contact.Name
			}
			*contact = r.contacts[i]
			return nil
		}
	}
	contact.ID = r.id()
	r.contacts = append(r.contacts, *contact)
	return nil
}

func (r *fakeRepository) UpsertConversation(conversation *models.Conversation) error {
	for i := range r.conversations {
		if r.conversations[i].TenantID == conversation.TenantID &&
			r.conversations[i].ContactID == conversation.ContactID &&
			r.conversations[i].AccountID == conversation.AccountID {
			r.conversations[i].LastMessagePreview = conversation.LastMessagePreview
			r.conversations[i].LastMessageAt = conversation.LastMessageAt
			*conversation = r.conversations[i]
			return nil
		}
	}
	conversation.ID = r.id()
	r.conversations = append(r.conversations, *conversation)
	return nil
}

func (r *fakeRepository) CreateMessage(message *models.Message) error {
	if r.failCreateMessage {
		return errors.New("forced message insert failure")
	}
	// NULL provider ids never collide, mirroring the unique key semantics.
	for i := range r.messages {
		if r.messages[i].TenantID == message.TenantID &&
			r.messages[i].ProviderMessageID != nil && message.ProviderMessageID != nil &&
			*r.messages[i].ProviderMessageID == *message.ProviderMessageID {
			return errors.New("duplicate provider message id")
		}
	}
	message.ID = r.id()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeRepository) UpdateMessageStatus(tenantID uint, providerMessageID, status string) (int64, error) {
	var affected int64
	for i := range r.messages {
		if r.messages[i].TenantID == tenantID &&
			r.messages[i].ProviderMessageID != nil && *r.messages[i].ProviderMessageID == providerMessageID {
			r.messages[i].Status = status
			affected++
		}
	}
	return affected, nil
}

// Transaction snapshots the store and restores it when fn fails, mirroring
// the rollback the real implementation gets from the database.
func (r *fakeRepository) Transaction(_ context.Context, fn func(Repository) error) error {
	snapshot := fakeRepository{
		configs:       append([]models.WebhookConfig(nil), r.configs...),
		events:        append([]models.EventLog(nil), r.events...),
		contacts:      append([]models.Contact(nil), r.contacts...),
		conversations: append([]models.Conversation(nil), r.conversations...),
		messages:      append([]models.Message(nil), r.messages...),
		nextID:        r.nextID,
	}
	if err := fn(r); err != nil {
		r.configs = snapshot.configs
		r.events = snapshot.events
		r.contacts = snapshot.contacts
		r.conversations = snapshot.conversations
		r.messages = snapshot.messages
		r.nextID = snapshot.nextID
		return err
	}
	return nil
}
