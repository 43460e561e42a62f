package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/chatriver/chatriver/app/models"
)

// DedupKey derives the deterministic key that suppresses redelivered
// payloads. Keys are prefixed by category so a message and a later status
// callback carrying the same provider message id never collide. Status ids
// repeat across the status transitions of one message, so the status value is
// part of the key; only identical redeliveries collapse.
func DedupKey(kind string, n *Notification, raw []byte, receivedAt time.Time) string {
	ch := n.FirstChange()

	switch kind {
	case models.EventTypeMessage:
		if ch != nil && len(ch.Value.Messages) > 0 && ch.Value.Messages[0].ID != "" {
			return "msg:" + ch.Value.Messages[0].ID
		}
	case models.EventTypeStatus:
		if ch != nil && len(ch.Value.Statuses) > 0 && ch.Value.Statuses[0].ID != "" {
			st := ch.Value.Statuses[0]
			return "status:" + st.ID + ":" + st.Status
		}
	}

	if e := n.FirstEntry(); e != nil && e.ID != "" {
		// Receipt second stands in when the payload carries no timestamp,
		// so fast provider retries of the same entry still collapse.
		ts := eventTimestamp(n)
		if ts.IsZero() {
			ts = receivedAt
		}
		return "entry:" + e.ID + ":" + strconv.FormatInt(ts.Unix(), 10)
	}

	// Last resort for payloads without any stable identifier.
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("recv:%s:%d", hex.EncodeToString(sum[:8]), receivedAt.UnixNano())
}

// eventTimestamp extracts the payload-derived event time, zero when the
// payload carries none.
func eventTimestamp(n *Notification) time.Time {
	ch := n.FirstChange()
	if ch == nil {
		return time.Time{}
	}
	if len(ch.Value.Messages) > 0 {
		if ts := ch.Value.Messages[0].Timestamp.Time(); !ts.IsZero() {
			return ts
		}
	}
	if len(ch.Value.Statuses) > 0 {
		if ts := ch.Value.Statuses[0].Timestamp.Time(); !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}
