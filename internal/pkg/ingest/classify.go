package ingest

import (
	"strings"

	"github.com/chatriver/chatriver/app/models"
)

// Classify determines the event category from the payload shape. Unknown
// shapes map to "other" so new provider event types are logged instead of
// rejected.
func Classify(n *Notification) string {
	ch := n.FirstChange()
	if ch == nil {
		return models.EventTypeOther
	}

	switch {
	case ch.Field == "messages" && len(ch.Value.Messages) > 0:
		return models.EventTypeMessage
	case len(ch.Value.Statuses) > 0:
		return models.EventTypeStatus
	case strings.Contains(ch.Field, "template") || strings.Contains(ch.Field, "status"):
		return models.EventTypeStatus
	}
	return models.EventTypeOther
}
