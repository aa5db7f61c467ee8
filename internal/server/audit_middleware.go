package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/metrics"
)

const maxAuditedBody = 4 << 10

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		entry := &AuditLogEntry{
			Timestamp: started.UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   routeName(r),
			EntityID:  mux.Vars(r)["id"],
		}

		// credentials never reach the audit log
		if r.Body != nil && r.Method != http.MethodGet && !strings.HasPrefix(r.URL.Path, "/auth/") {
			body, _ := io.ReadAll(io.LimitReader(r.Body, maxAuditedBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
			entry.Request = string(body)

			if strings.HasSuffix(r.URL.Path, "/status") {
				var statusRequest struct {
					Status string `json:"status"`
				}
				if err := json.Unmarshal(body, &statusRequest); err == nil {
					entry.NewStatus = statusRequest.Status
				}
			}
		}

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), auditKey{}, entry)))

		entry.StatusCode = rec.statusCode
		entry.Duration = time.Since(started)
		metrics.HTTPRequestsTotal.WithLabelValues(entry.Handler, strconv.Itoa(rec.statusCode)).Inc()

		if s.AuditManager != nil {
			s.AuditManager.LogEntry(r.Context(), *entry)
		}
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return "unknown"
}
