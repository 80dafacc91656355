package user

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"pulse/infrastructure"
)

type JSONHandler struct {
	service *Service
}

func NewJSONHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

// GetUsers returns the user directory for the chat contact list. The caller
// is excluded and password hashes are never serialized.
func (h *JSONHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	callerID, ok := infrastructure.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.service.Directory(r.Context(), callerID)
	if err != nil {
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("/users", requireAuth(h.GetUsers)).Methods("GET")
}
