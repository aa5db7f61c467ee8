//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

type Storage interface {
	CreatePackage(ctx context.Context, caller storage.Identity, in storage.NewPackage) (*storage.Package, error)
	ListAvailablePackages(ctx context.Context, caller storage.Identity) ([]storage.Package, error)
	GetPackage(ctx context.Context, caller storage.Identity, id string) (*storage.Package, error)
	AcceptPackage(ctx context.Context, caller storage.Identity, id string) (*storage.AcceptResult, error)
	RejectPackage(ctx context.Context, caller storage.Identity, id string) error
	GetPackageHistory(ctx context.Context, caller storage.Identity, id string) ([]storage.HistoryEntry, error)
	ListActiveDeliveries(ctx context.Context, caller storage.Identity) ([]storage.ActiveDelivery, error)
	UpdateDeliveryStatus(ctx context.Context, caller storage.Identity, id, status string) (*storage.Delivery, error)
	GetEarnings(ctx context.Context, caller storage.Identity, driverID string) (*storage.Earnings, error)
	SetAvailability(ctx context.Context, caller storage.Identity, available bool) (*storage.Availability, error)
	RegisterUser(ctx context.Context, in storage.NewUser) (*storage.User, error)
	Authenticate(ctx context.Context, username, password string) (*storage.User, error)
}

type TokenManager interface {
	Issue(id storage.Identity) (string, error)
	Validate(token string) (storage.Identity, error)
}

const maxBodyBytes = 1 << 20

type Server struct {
	storage      Storage
	tokens       TokenManager
	logger       *zap.Logger
	server       *http.Server
	AuditManager *AuditManager
}

func New(storage Storage, tokens TokenManager, auditManager *AuditManager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		storage:      storage,
		tokens:       tokens,
		logger:       logger,
		AuditManager: auditManager,
	}
}

// Run serves until Shutdown is called. The audit workers live as long as ctx.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if s.AuditManager != nil {
		s.AuditManager.Start(ctx)
	}

	s.logger.Info("server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("http server shutdown completed")

	if s.AuditManager != nil {
		s.AuditManager.Shutdown(ctx)
	}
	return nil
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.auditLogMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet).Name("health")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost).Name("register")
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost).Name("login")

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/packages", s.handleCreatePackage).Methods(http.MethodPost).Name("createPackage")
	api.HandleFunc("/packages/available", s.handleListAvailablePackages).Methods(http.MethodGet).Name("listAvailablePackages")
	api.HandleFunc("/packages/{id}", s.handleGetPackage).Methods(http.MethodGet).Name("getPackage")
	api.HandleFunc("/packages/{id}/history", s.handlePackageHistory).Methods(http.MethodGet).Name("packageHistory")
	api.HandleFunc("/packages/{id}/accept", s.handleAcceptPackage).Methods(http.MethodPut).Name("acceptPackage")
	api.HandleFunc("/packages/{id}/reject", s.handleRejectPackage).Methods(http.MethodPut).Name("rejectPackage")

	api.HandleFunc("/deliveries/active", s.handleListActiveDeliveries).Methods(http.MethodGet).Name("listActiveDeliveries")
	api.HandleFunc("/deliveries/{id}/status", s.handleUpdateDeliveryStatus).Methods(http.MethodPut).Name("updateDeliveryStatus")

	api.HandleFunc("/pickers/availability", s.handleSetAvailability).Methods(http.MethodPut).Name("setAvailability")
	api.HandleFunc("/pickers/{id}/earnings", s.handleGetEarnings).Methods(http.MethodGet).Name("getEarnings")

	return r
}

type identityKey struct{}

func withIdentity(ctx context.Context, id storage.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) (storage.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(storage.Identity)
	return id, ok
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="courier"`)
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := s.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="courier", error="invalid_token"`)
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if entry := auditEntryFrom(r.Context()); entry != nil {
			entry.UserID = id.UserID
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStorageError maps lifecycle errors to HTTP statuses. Unexpected
// errors are logged and reported without detail.
func (s *Server) respondStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation), errors.Is(err, storage.ErrInvalidState):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
