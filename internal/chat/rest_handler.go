package chat

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pulse/infrastructure"
)

type JSONHandler struct {
	store Repository
}

func NewJSONHandler(store Repository) *JSONHandler {
	return &JSONHandler{store: store}
}

// GetConversation returns the messages exchanged between the caller and the
// peer, ascending by creation time. The pair filter is conjunctive: other
// conversations of either participant are never included.
func (h *JSONHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	callerID, ok := infrastructure.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	peerID, err := uuid.Parse(vars["peerId"])
	if err != nil {
		http.Error(w, "invalid peer id", http.StatusBadRequest)
		return
	}

	msgs, err := h.store.Conversation(r.Context(), callerID, peerID)
	if err != nil {
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("/conversations/{peerId}/messages", requireAuth(h.GetConversation)).Methods("GET")
}
