package server

import (
	"context"
	"time"

	"go.uber.org/zap/zapcore"
)

type AuditLogEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	Handler    string        `json:"handler"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
	UserID     string        `json:"user_id,omitempty"`
	EntityID   string        `json:"entity_id,omitempty"`
	NewStatus  string        `json:"new_status,omitempty"`
	Request    string        `json:"request,omitempty"`
}

func (e AuditLogEntry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddTime("timestamp", e.Timestamp)
	enc.AddString("handler", e.Handler)
	enc.AddString("method", e.Method)
	enc.AddString("path", e.Path)
	enc.AddInt("status_code", e.StatusCode)
	enc.AddDuration("duration", e.Duration)
	if e.UserID != "" {
		enc.AddString("user_id", e.UserID)
	}
	if e.EntityID != "" {
		enc.AddString("entity_id", e.EntityID)
	}
	if e.NewStatus != "" {
		enc.AddString("new_status", e.NewStatus)
	}
	if e.Request != "" {
		enc.AddString("request", e.Request)
	}
	return nil
}

type auditBatch []AuditLogEntry

func (b auditBatch) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, e := range b {
		if err := enc.AppendObject(e); err != nil {
			return err
		}
	}
	return nil
}

type auditKey struct{}

// auditEntryFrom returns the entry being filled for the current request so
// inner middleware and handlers can add the caller and entity ids.
func auditEntryFrom(ctx context.Context) *AuditLogEntry {
	entry, _ := ctx.Value(auditKey{}).(*AuditLogEntry)
	return entry
}
