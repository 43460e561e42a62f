package ingest

import "github.com/gofiber/fiber/v2/log"

// AuditSink receives notable ingest outcomes. It is injected explicitly into
// the service and materializer instead of living behind a settable
// process-wide hook, so tests and alternate deployments can swap it.
type AuditSink interface {
	Event(tenantID uint, action, detail string)
}

type logAuditSink struct{}

// NewLogAuditSink returns a sink that writes audit lines through the
// application logger.
func NewLogAuditSink() AuditSink {
	return logAuditSink{}
}

func (logAuditSink) Event(tenantID uint, action, detail string) {
	log.Infof("[Audit] tenant=%d action=%s %s", tenantID, action, detail)
}

type nopAuditSink struct{}

// NewNopAuditSink returns a sink that discards everything.
func NewNopAuditSink() AuditSink {
	return nopAuditSink{}
}

func (nopAuditSink) Event(uint, string, string) {}
