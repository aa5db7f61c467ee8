package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	mock_server "gitlab.ozon.dev/pupkingeorgij/courier/internal/server/mocks"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

func TestAuditManager_FlushesFullBatch(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(1, 2, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.LogEntry(ctx, AuditLogEntry{Handler: "getPackage", StatusCode: http.StatusOK})
	m.LogEntry(ctx, AuditLogEntry{Handler: "acceptPackage", StatusCode: http.StatusOK})

	require.Eventually(t, func() bool {
		return logs.FilterMessage("audit batch").Len() == 1
	}, time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("audit batch").All()[0]
	assert.EqualValues(t, 2, entry.ContextMap()["size"])
	assert.Equal(t, 0, m.Pending())
}

func TestAuditManager_FlushesOnTimeout(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(1, 10, 20*time.Millisecond, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.LogEntry(ctx, AuditLogEntry{Handler: "health"})

	require.Eventually(t, func() bool {
		return logs.FilterMessage("audit batch").Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAuditManager_ShutdownDrainsQueue(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(2, 100, time.Hour, zap.New(core))

	ctx := context.Background()
	m.Start(ctx)

	for i := 0; i < 5; i++ {
		m.LogEntry(ctx, AuditLogEntry{Handler: "listAvailablePackages"})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Shutdown(shutdownCtx)

	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 1, logs.FilterMessage("audit manager shutdown completed").Len())

	m.LogEntry(ctx, AuditLogEntry{Handler: "late"})
	assert.Equal(t, 1, logs.FilterMessage("audit entry written directly").Len())
}

func TestAuditLogMiddleware_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(1, 1, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	ctrl := gomock.NewController(t)
	mockStorage := mock_server.NewMockStorage(ctrl)
	mockTokens := mock_server.NewMockTokenManager(ctrl)
	server := New(mockStorage, mockTokens, m, zap.NewNop())

	driver := storage.Identity{UserID: "8f0e2b5c-2222-4c1e-9a55-000000000001", Role: storage.RoleDriver}
	mockTokens.EXPECT().Validate("t").Return(driver, nil)
	mockStorage.EXPECT().UpdateDeliveryStatus(gomock.Any(), driver, testDeliveryID, "delivered").
		Return(&storage.Delivery{ID: testDeliveryID, Status: storage.DeliveryDelivered}, nil)

	req := httptest.NewRequest(http.MethodPut, "/deliveries/"+testDeliveryID+"/status", strings.NewReader(`{"status":"delivered"}`))
	req.Header.Set("Authorization", "Bearer t")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("audit batch").Len() == 1
	}, time.Second, 10*time.Millisecond)

	entries, ok := logs.FilterMessage("audit batch").All()[0].ContextMap()["entries"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)

	logged := entries[0].(map[string]interface{})
	assert.Equal(t, "updateDeliveryStatus", logged["handler"])
	assert.Equal(t, driver.UserID, logged["user_id"])
	assert.Equal(t, testDeliveryID, logged["entity_id"])
	assert.Equal(t, "delivered", logged["new_status"])
	assert.EqualValues(t, http.StatusOK, logged["status_code"])
}
