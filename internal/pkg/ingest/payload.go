package ingest

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedPayload is returned when a delivery body cannot be parsed or
// misses the fields needed to route it to a tenant.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Notification is the provider's webhook envelope. The provider batches
// changes per business account entry; in practice a delivery carries exactly
// one entry with one change, but we keep the arrays as received.
type Notification struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps one change set. Field is the discriminator the classifier
// inspects ("messages" for conversation traffic, template/status fields for
// everything else).
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string         `json:"messaging_product"`
	Metadata         Metadata       `json:"metadata"`
	Contacts         []ContactBlock `json:"contacts,omitempty"`
	Messages         []MessageBlock `json:"messages,omitempty"`
	Statuses         []StatusBlock  `json:"statuses,omitempty"`
}

// Metadata identifies the inbound account the delivery belongs to.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type ContactBlock struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

type MessageBlock struct {
	From      string      `json:"from"`
	ID        string      `json:"id"`
	Timestamp EpochString `json:"timestamp"`
	Type      string      `json:"type"`
	Text      *TextBlock  `json:"text,omitempty"`
	Image     *MediaBlock `json:"image,omitempty"`
	Video     *MediaBlock `json:"video,omitempty"`
	Audio     *MediaBlock `json:"audio,omitempty"`
	Document  *MediaBlock `json:"document,omitempty"`
	Sticker   *MediaBlock `json:"sticker,omitempty"`
}

type TextBlock struct {
	Body string `json:"body"`
}

// MediaBlock is shared by all media kinds. URL is only present for
// link-based media; id-based media is fetched through the media API later.
type MediaBlock struct {
	ID       string `json:"id,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	URL      string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type StatusBlock struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	Timestamp   EpochString `json:"timestamp"`
	RecipientID string      `json:"recipient_id"`
}

// EpochString is an epoch-seconds timestamp. The provider serializes it as a
// JSON string, but some payload variants carry a bare number, so we accept both.
type EpochString int64

func (e *EpochString) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*e = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*e = EpochString(v)
	return nil
}

func (e EpochString) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(e), 10))), nil
}

// Time converts the epoch seconds to a time, zero time when unset.
func (e EpochString) Time() time.Time {
	if e == 0 {
		return time.Time{}
	}
	return time.Unix(int64(e), 0)
}

// ParseNotification decodes a raw delivery body.
func ParseNotification(raw []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, ErrMalformedPayload
	}
	return &n, nil
}

// FirstEntry returns the first entry of the envelope, nil when absent.
func (n *Notification) FirstEntry() *Entry {
	if n == nil || len(n.Entry) == 0 {
		return nil
	}
	return &n.Entry[0]
}

// FirstChange returns the first change of the first entry, nil when absent.
func (n *Notification) FirstChange() *Change {
	e := n.FirstEntry()
	if e == nil || len(e.Changes) == 0 {
		return nil
	}
	return &e.Changes[0]
}

// AccountID extracts the inbound account id the delivery is addressed to.
func (n *Notification) AccountID() string {
	ch := n.FirstChange()
	if ch == nil {
		return ""
	}
	return strings.TrimSpace(ch.Value.Metadata.PhoneNumberID)
}

// SenderContact returns the contact block matching the sender of msg, or the
// first contact block as fallback.
func (v *ChangeValue) SenderContact(msg *MessageBlock) *ContactBlock {
	if v == nil || len(v.Contacts) == 0 {
		return nil
	}
	if msg != nil {
		for i := range v.Contacts {
			if v.Contacts[i].WaID == msg.From {
				return &v.Contacts[i]
			}
		}
	}
	return &v.Contacts[0]
}

// Media returns whichever media block the message carries, with its kind.
func (m *MessageBlock) Media() (string, *MediaBlock) {
	switch {
	case m.Image != nil:
		return "image", m.Image
	case m.Video != nil:
		return "video", m.Video
	case m.Audio != nil:
		return "audio", m.Audio
	case m.Document != nil:
		return "document", m.Document
	case m.Sticker != nil:
		return "sticker", m.Sticker
	}
	return "", nil
}
