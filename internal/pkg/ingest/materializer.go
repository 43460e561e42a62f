package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/chatriver/chatriver/app/models"
)

const previewMaxLen = 255

// Materializer projects logged events into contact, conversation and message
// state. Each event is one transaction: either the full projection plus the
// processed flag commits, or nothing does and the row stays eligible for a
// queue retry.
type Materializer struct {
	repo  Repository
	audit AuditSink
	now   func() time.Time
}

// NewMaterializer creates a materializer from an injected repository and audit sink.
func NewMaterializer(repo Repository, audit AuditSink) *Materializer {
	return &Materializer{repo: repo, audit: audit, now: time.Now}
}

// NewMaterializerFromDB creates a materializer from a GORM DB handle.
func NewMaterializerFromDB(db *gorm.DB) *Materializer {
	return NewMaterializer(NewRepository(db), NewLogAuditSink())
}

// ProcessEvent materializes one logged event. Calling it again for an
// already-processed row is a success no-op, so duplicate queue deliveries of
// the same id cannot double-materialize.
func (m *Materializer) ProcessEvent(ctx context.Context, logID uint) error {
	err := m.repo.Transaction(ctx, func(tx Repository) error {
		event, err := tx.GetEvent(logID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Processed {
			return nil
		}

		// Re-classify from the stored payload; the logged type is a hint,
		// not a contract.
		n, err := ParseNotification([]byte(event.Payload))
		if err != nil {
			return err
		}

		switch Classify(n) {
		case models.EventTypeMessage:
			if err := m.projectMessage(tx, event, n); err != nil {
				return err
			}
		case models.EventTypeStatus:
			if err := m.projectStatus(tx, event, n); err != nil {
				return err
			}
		default:
			// Logged for visibility, nothing to project.
		}

		return tx.MarkEventProcessed(event.ID)
	})
	if err != nil && !errors.Is(err, ErrEventNotFound) {
		// The transaction rolled back; keep the failure visible on the row.
		if recErr := m.repo.RecordProcessingError(logID, err.Error()); recErr != nil {
			m.audit.Event(0, "materialize_error_unrecorded", fmt.Sprintf("id=%d err=%v", logID, recErr))
		}
	}
	return err
}

func (m *Materializer) projectMessage(tx Repository, event *models.EventLog, n *Notification) error {
	ch := n.FirstChange()
	if ch == nil || len(ch.Value.Messages) == 0 {
		return nil
	}
	msg := &ch.Value.Messages[0]

	phone := msg.From
	name := ""
	if contact := ch.Value.SenderContact(msg); contact != nil {
		if contact.WaID != "" {
			phone = contact.WaID
		}
		name = contact.Profile.Name
	}
	if phone == "" {
		return fmt.Errorf("message event %d has no sender address", event.ID)
	}

	contact := &models.Contact{
		TenantID: event.TenantID,
		Phone:    phone,
		Name:     name,
	}
	if err := tx.UpsertContact(contact); err != nil {
		return err
	}

	content := messageContent(msg)
	sentAt := msg.Timestamp.Time()
	if sentAt.IsZero() {
		sentAt = event.EventTimestamp
	}

	conversation := &models.Conversation{
		TenantID:           event.TenantID,
		ContactID:          contact.ID,
		AccountID:          event.AccountID,
		LastMessagePreview: truncate(content, previewMaxLen),
		LastMessageAt:      &sentAt,
	}
	if err := tx.UpsertConversation(conversation); err != nil {
		return err
	}

	mediaType, media := msg.Media()
	message := &models.Message{
		TenantID:       event.TenantID,
		ConversationID: conversation.ID,
		ContactID:      contact.ID,
		AccountID:      event.AccountID,
		Direction:      models.MessageDirectionInbound,
		Status:         models.MessageStatusDelivered,
		Content:        content,
		MediaType:      mediaType,
		SentAt:         sentAt,
	}
	if msg.ID != "" {
		id := msg.ID
		message.ProviderMessageID = &id
	}
	if media != nil {
		message.MediaID = media.ID
		message.MediaURL = media.URL
		message.MediaMimeType = media.MimeType
	}
	if err := tx.CreateMessage(message); err != nil {
		return err
	}

	m.audit.Event(event.TenantID, "message_materialized", fmt.Sprintf("event=%d message=%d", event.ID, message.ID))
	return nil
}

func (m *Materializer) projectStatus(tx Repository, event *models.EventLog, n *Notification) error {
	ch := n.FirstChange()
	if ch == nil || len(ch.Value.Statuses) == 0 {
		return nil
	}
	st := ch.Value.Statuses[0]
	if st.ID == "" || st.Status == "" {
		return nil
	}

	// Zero affected rows is accepted: the status may have raced ahead of its
	// message event.
	affected, err := tx.UpdateMessageStatus(event.TenantID, st.ID, st.Status)
	if err != nil {
		return err
	}
	m.audit.Event(event.TenantID, "status_materialized", fmt.Sprintf("event=%d provider_message=%s status=%s rows=%d", event.ID, st.ID, st.Status, affected))
	return nil
}

// messageContent returns the text body, or a media placeholder for
// non-text messages.
func messageContent(msg *MessageBlock) string {
	if msg.Text != nil && msg.Text.Body != "" {
		return msg.Text.Body
	}
	if kind, media := msg.Media(); media != nil {
		if media.Caption != "" {
			return media.Caption
		}
		return "[" + kind + "]"
	}
	if msg.Type != "" {
		return "[" + msg.Type + "]"
	}
	return ""
}

// truncate shortens s to at most max bytes without splitting a rune; a cut
// mid-rune would produce invalid UTF-8 the database rejects.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
