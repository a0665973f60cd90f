package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// Login handles a polling-only login: the user is registered and marked
// present without a push channel bound. Clients that want live pushes
// connect to /ws instead, which performs the same login with the socket
// as the channel.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	username := sanitizeName(req.Username)
	if username == "" {
		h.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.chat.Login(r.Context(), username, nil); err != nil {
		h.Error(w, http.StatusInternalServerError, "login failed: "+err.Error())
		return
	}

	h.JSON(w, http.StatusOK, LoginResponse{Username: username, Online: true})
}

// LogoutRequest represents the logout request body.
type LogoutRequest struct {
	Username string `json:"username"`
}

// Logout handles explicit logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	username := sanitizeName(req.Username)
	if username == "" {
		h.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	if !h.chat.Logout(r.Context(), username) {
		h.Error(w, http.StatusNotFound, "no active session for user")
		return
	}

	h.JSON(w, http.StatusOK, LoginResponse{Username: username, Online: false})
}

// PendingResponse represents the drained pending backlog.
type PendingResponse struct {
	Events []models.Event `json:"events"`
}

// PollPending returns and clears the user's pending backlog. A second
// poll with nothing new returns an empty list.
func (h *Handler) PollPending(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")

	events, err := h.chat.PollPending(r.Context(), username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to drain pending events")
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	h.JSON(w, http.StatusOK, PendingResponse{Events: events})
}
