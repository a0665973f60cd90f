package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// OnlineResponse represents the online users list.
type OnlineResponse struct {
	Users []string `json:"users"`
}

// ListOnline returns users with a live session.
func (h *Handler) ListOnline(w http.ResponseWriter, r *http.Request) {
	users := h.chat.ListOnline()
	if users == nil {
		users = []string{}
	}
	h.JSON(w, http.StatusOK, OnlineResponse{Users: users})
}

// AllUsersResponse represents every known user with presence.
type AllUsersResponse struct {
	Users []models.UserStatus `json:"users"`
}

// ListAll returns every known user with its online flag.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, AllUsersResponse{Users: h.chat.ListAllWithStatus()})
}

// HistoryResponse represents a user's merged history.
type HistoryResponse struct {
	Username string                 `json:"username"`
	Records  []models.HistoryRecord `json:"records"`
}

// GetHistory returns the user's direct log merged with the logs of the
// groups the user belongs to, ordered by timestamp.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")

	records, err := h.chat.History(r.Context(), username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}

	h.JSON(w, http.StatusOK, HistoryResponse{Username: username, Records: records})
}
