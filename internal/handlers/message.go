package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SendMessageRequest represents a direct or group text send.
type SendMessageRequest struct {
	From string `json:"from"`
	Body string `json:"body"`
}

// SendMessageResponse acknowledges an accepted send. Acceptance means
// the message was persisted; live delivery is always best-effort.
type SendMessageResponse struct {
	Accepted bool `json:"accepted"`
}

// SendDirect handles sending a direct text message.
func (h *Handler) SendDirect(w http.ResponseWriter, r *http.Request) {
	to := sanitizeName(chi.URLParam(r, "user"))

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	from := sanitizeName(req.From)
	if from == "" || to == "" {
		h.Error(w, http.StatusBadRequest, "from and recipient are required")
		return
	}
	if req.Body == "" {
		h.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	if err := h.chat.SendDirect(r.Context(), from, to, req.Body); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to persist message")
		return
	}

	h.JSON(w, http.StatusCreated, SendMessageResponse{Accepted: true})
}

// SendGroup handles sending a group text message.
func (h *Handler) SendGroup(w http.ResponseWriter, r *http.Request) {
	group := sanitizeName(chi.URLParam(r, "name"))

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	from := sanitizeName(req.From)
	if from == "" || group == "" {
		h.Error(w, http.StatusBadRequest, "from and group are required")
		return
	}
	if req.Body == "" {
		h.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	if err := h.chat.SendGroup(r.Context(), from, group, req.Body); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to persist message")
		return
	}

	h.JSON(w, http.StatusCreated, SendMessageResponse{Accepted: true})
}

// SendVoiceDirect handles a raw-body voice-note upload for one user.
// The sender comes from the `from` query parameter.
func (h *Handler) SendVoiceDirect(w http.ResponseWriter, r *http.Request) {
	to := sanitizeName(chi.URLParam(r, "user"))
	from := sanitizeName(r.URL.Query().Get("from"))

	audio, ok := h.readAudio(w, r, from, to)
	if !ok {
		return
	}

	if err := h.chat.SendVoiceDirect(r.Context(), from, to, audio); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store voice note")
		return
	}

	h.JSON(w, http.StatusCreated, SendMessageResponse{Accepted: true})
}

// SendVoiceGroup handles a raw-body voice-note upload for a group.
func (h *Handler) SendVoiceGroup(w http.ResponseWriter, r *http.Request) {
	group := sanitizeName(chi.URLParam(r, "name"))
	from := sanitizeName(r.URL.Query().Get("from"))

	audio, ok := h.readAudio(w, r, from, group)
	if !ok {
		return
	}

	if err := h.chat.SendVoiceGroup(r.Context(), from, group, audio); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store voice note")
		return
	}

	h.JSON(w, http.StatusCreated, SendMessageResponse{Accepted: true})
}

func (h *Handler) readAudio(w http.ResponseWriter, r *http.Request, from, target string) ([]byte, bool) {
	if from == "" || target == "" {
		h.Error(w, http.StatusBadRequest, "from and target are required")
		return nil, false
	}

	audio, err := io.ReadAll(r.Body)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "failed to read audio payload")
		return nil, false
	}
	if len(audio) == 0 {
		h.Error(w, http.StatusBadRequest, "audio payload is empty")
		return nil, false
	}
	return audio, true
}
