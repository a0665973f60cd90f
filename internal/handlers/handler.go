package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/core"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	chat *core.Chat

	// Named readiness probes for the health endpoint, one per backing
	// store that is actually configured.
	checks map[string]func(ctx context.Context) error
}

// NewHandler creates a new Handler over the chat core.
func NewHandler(chat *core.Chat) *Handler {
	return &Handler{
		chat:   chat,
		checks: make(map[string]func(ctx context.Context) error),
	}
}

// AddCheck registers a named health probe.
func (h *Handler) AddCheck(name string, fn func(ctx context.Context) error) {
	h.checks[name] = fn
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// sanitizeName trims a name, strips control characters and caps its
// length. Any remaining non-empty string is a valid username.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
