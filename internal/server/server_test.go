package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_server "gitlab.ozon.dev/pupkingeorgij/courier/internal/server/mocks"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

const (
	testPackageID  = "5d7a3e90-aaaa-4b7f-8b1d-000000000001"
	testDeliveryID = "5d7a3e90-bbbb-4b7f-8b1d-000000000001"
)

var (
	sender = storage.Identity{UserID: "8f0e2b5c-1111-4c1e-9a55-000000000001", Role: storage.RoleSender}
	driver = storage.Identity{UserID: "8f0e2b5c-2222-4c1e-9a55-000000000001", Role: storage.RoleDriver}
)

func newTestServer(t *testing.T) (*Server, *mock_server.MockStorage, *mock_server.MockTokenManager) {
	ctrl := gomock.NewController(t)
	mockStorage := mock_server.NewMockStorage(ctrl)
	mockTokens := mock_server.NewMockTokenManager(ctrl)
	return New(mockStorage, mockTokens, nil, zap.NewNop()), mockStorage, mockTokens
}

func newRequest(t *testing.T, method, target string, body interface{}, caller *storage.Identity, vars map[string]string) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req = req.WithContext(withIdentity(req.Context(), *caller))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		setupMocks     func(*mock_server.MockStorage, *mock_server.MockTokenManager)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing token",
			setupMocks:     func(*mock_server.MockStorage, *mock_server.MockTokenManager) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"missing bearer token"}`,
		},
		{
			name:           "wrong scheme",
			header:         "Basic Zm9vOmJhcg==",
			setupMocks:     func(*mock_server.MockStorage, *mock_server.MockTokenManager) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"missing bearer token"}`,
		},
		{
			name:   "invalid token",
			header: "Bearer broken",
			setupMocks: func(_ *mock_server.MockStorage, tokens *mock_server.MockTokenManager) {
				tokens.EXPECT().Validate("broken").Return(storage.Identity{}, errors.New("invalid token"))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"invalid or expired token"}`,
		},
		{
			name:   "valid token reaches handler with identity",
			header: "Bearer good",
			setupMocks: func(st *mock_server.MockStorage, tokens *mock_server.MockTokenManager) {
				tokens.EXPECT().Validate("good").Return(driver, nil)
				st.EXPECT().ListAvailablePackages(gomock.Any(), driver).Return([]storage.Package{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, mockTokens := newTestServer(t)
			tc.setupMocks(mockStorage, mockTokens)

			req := httptest.NewRequest(http.MethodGet, "/packages/available", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			server.Router().ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	server, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "courier_http_requests_total")
}

func TestRouter_PackageRoutesResolveByPath(t *testing.T) {
	server, mockStorage, mockTokens := newTestServer(t)
	mockTokens.EXPECT().Validate("t").Return(driver, nil).Times(2)
	mockStorage.EXPECT().GetPackage(gomock.Any(), driver, testPackageID).Return(&storage.Package{ID: testPackageID}, nil)
	mockStorage.EXPECT().AcceptPackage(gomock.Any(), driver, testPackageID).Return(&storage.AcceptResult{}, nil)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/packages/"+testPackageID, nil),
		httptest.NewRequest(http.MethodPut, "/packages/"+testPackageID+"/accept", nil),
	} {
		req.Header.Set("Authorization", "Bearer t")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, req.URL.Path)
	}
}

func TestHandleCreatePackage(t *testing.T) {
	created := &storage.Package{
		ID:              testPackageID,
		Name:            "Box",
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Status:          storage.PackagePending,
		Owner:           storage.Owner{ID: sender.UserID},
		CreatedAt:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(*mock_server.MockStorage)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "created",
			body: map[string]interface{}{"name": "Box", "pickupAddress": "A", "deliveryAddress": "B", "price": 50},
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().CreatePackage(gomock.Any(), sender, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ storage.Identity, in storage.NewPackage) (*storage.Package, error) {
						assert.Equal(t, "Box", in.Name)
						require.NotNil(t, in.Price)
						assert.Equal(t, 50.0, *in.Price)
						return created, nil
					})
			},
			expectedStatus: http.StatusCreated,
			expectedBody: `{"id":"` + testPackageID + `","name":"Box","pickupAddress":"A","deliveryAddress":"B",
				"status":"pending","owner":{"id":"` + sender.UserID + `"},
				"createdAt":"2025-03-01T12:00:00Z","updatedAt":"2025-03-01T12:00:00Z"}`,
		},
		{
			name:           "invalid body",
			body:           "{",
			setupMocks:     func(*mock_server.MockStorage) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body"}`,
		},
		{
			name: "missing fields",
			body: map[string]interface{}{"name": "Box"},
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().CreatePackage(gomock.Any(), sender, gomock.Any()).
					Return(nil, fmt.Errorf("%w: pickupAddress is required", storage.ErrValidation))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"validation failed: pickupAddress is required"}`,
		},
		{
			name: "storage error is not leaked",
			body: map[string]interface{}{"name": "Box", "pickupAddress": "A", "deliveryAddress": "B"},
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().CreatePackage(gomock.Any(), sender, gomock.Any()).
					Return(nil, errors.New("pq: connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, _ := newTestServer(t)
			tc.setupMocks(mockStorage)

			rr := httptest.NewRecorder()
			server.handleCreatePackage(rr, newRequest(t, http.MethodPost, "/packages", tc.body, &sender, nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestHandleGetPackage(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "found", expectedStatus: http.StatusOK},
		{name: "not found", err: fmt.Errorf("package %w", storage.ErrNotFound), expectedStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, _ := newTestServer(t)

			var pkg *storage.Package
			if tc.err == nil {
				pkg = &storage.Package{ID: testPackageID, Owner: storage.Owner{ID: sender.UserID, Username: "alice"}}
			}
			mockStorage.EXPECT().GetPackage(gomock.Any(), driver, testPackageID).Return(pkg, tc.err)

			rr := httptest.NewRecorder()
			server.handleGetPackage(rr, newRequest(t, http.MethodGet, "/packages/"+testPackageID, nil, &driver,
				map[string]string{"id": testPackageID}))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.err != nil {
				assert.JSONEq(t, `{"error":"package not found"}`, rr.Body.String())
			}
		})
	}
}

func TestHandleAcceptPackage(t *testing.T) {
	tests := []struct {
		name           string
		result         *storage.AcceptResult
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "accepted",
			result: &storage.AcceptResult{
				Delivery: storage.Delivery{ID: testDeliveryID, PackageID: testPackageID, Status: storage.DeliveryAssigned, DriverID: driver.UserID, PickupLocation: "A", DropoffLocation: "B"},
				Package:  storage.Package{ID: testPackageID, Status: storage.PackageAccepted},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not pending",
			err:            fmt.Errorf("%w: package is not available for acceptance (status: accepted)", storage.ErrInvalidState),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid state: package is not available for acceptance (status: accepted)"}`,
		},
		{
			name:           "sender",
			err:            fmt.Errorf("%w: senders are not allowed to perform this action", storage.ErrForbidden),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error":"forbidden: senders are not allowed to perform this action"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, _ := newTestServer(t)
			mockStorage.EXPECT().AcceptPackage(gomock.Any(), driver, testPackageID).Return(tc.result, tc.err)

			rr := httptest.NewRecorder()
			server.handleAcceptPackage(rr, newRequest(t, http.MethodPut, "/packages/"+testPackageID+"/accept", nil, &driver,
				map[string]string{"id": testPackageID}))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
				return
			}

			var body struct {
				Delivery storage.Delivery `json:"delivery"`
				Package  storage.Package  `json:"package"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, storage.DeliveryAssigned, body.Delivery.Status)
			assert.Equal(t, "A", body.Delivery.PickupLocation)
			assert.Equal(t, storage.PackageAccepted, body.Package.Status)
		})
	}
}

func TestHandleRejectPackage(t *testing.T) {
	server, mockStorage, _ := newTestServer(t)
	mockStorage.EXPECT().RejectPackage(gomock.Any(), driver, testPackageID).Return(nil)

	rr := httptest.NewRecorder()
	server.handleRejectPackage(rr, newRequest(t, http.MethodPut, "/packages/"+testPackageID+"/reject", nil, &driver,
		map[string]string{"id": testPackageID}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "message")
}

func TestHandleUpdateDeliveryStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(*mock_server.MockStorage)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "updated",
			body: map[string]string{"status": "in-transit"},
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().UpdateDeliveryStatus(gomock.Any(), driver, testDeliveryID, "in-transit").
					Return(&storage.Delivery{ID: testDeliveryID, Status: storage.DeliveryInTransit}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not the owner",
			body: map[string]string{"status": "in-transit"},
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().UpdateDeliveryStatus(gomock.Any(), driver, testDeliveryID, "in-transit").
					Return(nil, fmt.Errorf("%w: only the assigned driver can update this delivery", storage.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error":"forbidden: only the assigned driver can update this delivery"}`,
		},
		{
			name: "terminal",
			body: map[string]string{"status": "failed"},
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().UpdateDeliveryStatus(gomock.Any(), driver, testDeliveryID, "failed").
					Return(nil, fmt.Errorf("%w: delivery is already delivered", storage.ErrInvalidState))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid state: delivery is already delivered"}`,
		},
		{
			name:           "invalid body",
			body:           "status=done",
			setupMocks:     func(*mock_server.MockStorage) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, _ := newTestServer(t)
			tc.setupMocks(mockStorage)

			rr := httptest.NewRecorder()
			server.handleUpdateDeliveryStatus(rr, newRequest(t, http.MethodPut, "/deliveries/"+testDeliveryID+"/status", tc.body, &driver,
				map[string]string{"id": testDeliveryID}))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
				return
			}
			assert.Contains(t, rr.Body.String(), `"delivery":`)
		})
	}
}

func TestHandleSetAvailability(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(*mock_server.MockStorage)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "available",
			body: `{"availability": true}`,
			setupMocks: func(st *mock_server.MockStorage) {
				st.EXPECT().SetAvailability(gomock.Any(), driver, true).
					Return(&storage.Availability{Username: "bob", Availability: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"username":"bob","availability":true}`,
		},
		{
			name:           "string value",
			body:           `{"availability": "yes"}`,
			setupMocks:     func(*mock_server.MockStorage) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"availability must be a boolean"}`,
		},
		{
			name:           "missing value",
			body:           `{}`,
			setupMocks:     func(*mock_server.MockStorage) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"availability must be a boolean"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, _ := newTestServer(t)
			tc.setupMocks(mockStorage)

			rr := httptest.NewRecorder()
			server.handleSetAvailability(rr, newRequest(t, http.MethodPut, "/pickers/availability", tc.body, &driver, nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestHandleGetEarnings(t *testing.T) {
	tests := []struct {
		name           string
		earnings       *storage.Earnings
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "self",
			earnings:       &storage.Earnings{Username: "bob", Earnings: 50},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"username":"bob","earnings":50}`,
		},
		{
			name:           "not a driver",
			err:            fmt.Errorf("%w: user is not a driver", storage.ErrValidation),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"validation failed: user is not a driver"}`,
		},
		{
			name:           "someone else",
			err:            fmt.Errorf("%w: you can only view your own earnings", storage.ErrForbidden),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error":"forbidden: you can only view your own earnings"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, mockStorage, _ := newTestServer(t)
			mockStorage.EXPECT().GetEarnings(gomock.Any(), driver, driver.UserID).Return(tc.earnings, tc.err)

			rr := httptest.NewRecorder()
			server.handleGetEarnings(rr, newRequest(t, http.MethodGet, "/pickers/"+driver.UserID+"/earnings", nil, &driver,
				map[string]string{"id": driver.UserID}))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func TestHandleLogin(t *testing.T) {
	t.Run("issues token", func(t *testing.T) {
		server, mockStorage, mockTokens := newTestServer(t)
		user := &storage.User{ID: driver.UserID, Username: "bob", Role: storage.RoleDriver}
		mockStorage.EXPECT().Authenticate(gomock.Any(), "bob", "secret1").Return(user, nil)
		mockTokens.EXPECT().Issue(driver).Return("signed", nil)

		rr := httptest.NewRecorder()
		server.handleLogin(rr, newRequest(t, http.MethodPost, "/auth/login", map[string]string{"username": "bob", "password": "secret1"}, nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Token string `json:"token"`
			User  struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "signed", body.Token)
		assert.Equal(t, "driver", body.User.Role)
	})

	t.Run("bad credentials", func(t *testing.T) {
		server, mockStorage, _ := newTestServer(t)
		mockStorage.EXPECT().Authenticate(gomock.Any(), "bob", "nope").Return(nil, storage.ErrUnauthorized)

		rr := httptest.NewRecorder()
		server.handleLogin(rr, newRequest(t, http.MethodPost, "/auth/login", map[string]string{"username": "bob", "password": "nope"}, nil, nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"invalid username or password"}`, rr.Body.String())
	})
}

func TestHandleRegister(t *testing.T) {
	server, mockStorage, _ := newTestServer(t)
	mockStorage.EXPECT().RegisterUser(gomock.Any(), storage.NewUser{Username: "alice", Password: "secret1", Role: "sender"}).
		Return(&storage.User{ID: sender.UserID, Username: "alice", DisplayName: "alice", Role: storage.RoleSender}, nil)

	rr := httptest.NewRecorder()
	server.handleRegister(rr, newRequest(t, http.MethodPost, "/auth/register",
		map[string]string{"username": "alice", "password": "secret1", "role": "sender"}, nil, nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"user"`)
}
