package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chatriver/chatriver/app/models"
)

var (
	// ErrConfigNotFound is returned for unknown accounts and callback paths.
	// It carries no detail so callers cannot probe which accounts exist.
	ErrConfigNotFound = errors.New("webhook config not found")
	// ErrConfigInactive is returned when the account exists but is disabled.
	ErrConfigInactive = errors.New("webhook config inactive")
	// ErrEventNotFound is returned for materialization of an unknown log id.
	ErrEventNotFound = errors.New("event log entry not found")
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Service implements the synchronous ingest path: config resolution, event
// logging with dedup, and the paginated log reader.
type Service struct {
	repo  Repository
	audit AuditSink
	now   func() time.Time
}

// NewService creates an ingest service from an injected repository and audit sink.
func NewService(repo Repository, audit AuditSink) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// NewServiceFromDB creates an ingest service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewLogAuditSink())
}

// ResolveConfig looks up the webhook config for an inbound account id.
func (s *Service) ResolveConfig(accountID string) (*models.WebhookConfig, error) {
	id := strings.TrimSpace(accountID)
	if id == "" {
		return nil, ErrConfigNotFound
	}
	cfg, err := s.repo.FindConfigByAccount(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	if !cfg.Active {
		return nil, ErrConfigInactive
	}
	return cfg, nil
}

// ResolveConfigByPath looks up the webhook config behind a callback path.
// Used by the GET verification handshake before any payload exists.
func (s *Service) ResolveConfigByPath(callbackPath string) (*models.WebhookConfig, error) {
	path := strings.TrimSpace(callbackPath)
	if path == "" {
		return nil, ErrConfigNotFound
	}
	cfg, err := s.repo.FindConfigByPath(path)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	if !cfg.Active {
		return nil, ErrConfigInactive
	}
	return cfg, nil
}

// LogEvent persists a verified delivery idempotently. The returned bool is
// true only when a new row was inserted; redelivered payloads return the
// stored row with created=false and must not be dispatched again.
func (s *Service) LogEvent(cfg *models.WebhookConfig, raw []byte, signatureHeader string) (*models.EventLog, bool, error) {
	n, err := ParseNotification(raw)
	if err != nil {
		return nil, false, err
	}

	receivedAt := s.now()
	kind := Classify(n)
	ts := eventTimestamp(n)
	if ts.IsZero() {
		ts = receivedAt
	}

	objectID := ""
	if e := n.FirstEntry(); e != nil {
		objectID = e.ID
	}

	event := &models.EventLog{
		TenantID:        cfg.TenantID,
		AccountID:       cfg.AccountID,
		ObjectID:        objectID,
		EventType:       kind,
		EventTimestamp:  ts,
		Payload:         string(raw),
		SignatureHeader: signatureHeader,
		DedupKey:        DedupKey(kind, n, raw, receivedAt),
		Active:          true,
	}

	created, stored, err := s.repo.CreateEventIfNotExists(event)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.audit.Event(cfg.TenantID, "event_logged", fmt.Sprintf("id=%d type=%s dedup=%s", stored.ID, stored.EventType, stored.DedupKey))
	} else {
		s.audit.Event(cfg.TenantID, "event_duplicate", fmt.Sprintf("id=%d dedup=%s", stored.ID, stored.DedupKey))
	}
	return stored, created, nil
}

// ListEvents returns one page of the ingest log for (tenant, account) plus
// the cursor of the next page, empty when this is the last page.
func (s *Service) ListEvents(tenantID uint, accountID string, processed *bool, cursor string, limit int) ([]models.EventLog, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	// Fetch one extra row to know whether another page exists.
	events, err := s.repo.ListEvents(tenantID, strings.TrimSpace(accountID), processed, after, limit+1)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		next = Cursor{EventTimestamp: last.EventTimestamp.Unix(), ID: last.ID}.Encode()
	}
	return events, next, nil
}
