package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req storage.NewUser
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.storage.RegisterUser(r.Context(), req)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.storage.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(storage.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	var req storage.NewPackage
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pkg, err := s.storage.CreatePackage(r.Context(), caller, req)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	if entry := auditEntryFrom(r.Context()); entry != nil {
		entry.EntityID = pkg.ID
	}
	respondJSON(w, http.StatusCreated, pkg)
}

func (s *Server) handleListAvailablePackages(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	pkgs, err := s.storage.ListAvailablePackages(r.Context(), caller)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pkgs)
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	pkg, err := s.storage.GetPackage(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pkg)
}

func (s *Server) handlePackageHistory(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	history, err := s.storage.GetPackageHistory(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleAcceptPackage(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	res, err := s.storage.AcceptPackage(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleRejectPackage(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	if err := s.storage.RejectPackage(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Package rejected, it stays available to other drivers",
	})
}

func (s *Server) handleListActiveDeliveries(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	deliveries, err := s.storage.ListActiveDeliveries(r.Context(), caller)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, deliveries)
}

func (s *Server) handleUpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	delivery, err := s.storage.UpdateDeliveryStatus(r.Context(), caller, mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"delivery": delivery})
}

func (s *Server) handleGetEarnings(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	earnings, err := s.storage.GetEarnings(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, earnings)
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	caller, _ := identityFrom(r.Context())

	var req struct {
		Availability *bool `json:"availability"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Availability == nil {
		respondError(w, http.StatusBadRequest, "availability must be a boolean")
		return
	}

	availability, err := s.storage.SetAvailability(r.Context(), caller, *req.Availability)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, availability)
}
