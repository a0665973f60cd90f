package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/core"
)

// CallRequest represents the common from/to pair of signaling ops.
type CallRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SignalRequest represents a WebRTC offer/answer relay request.
type SignalRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Type    string `json:"type"` // "offer" or "answer"
	Payload string `json:"payload"`
}

// CandidateRequest represents an ICE candidate relay request.
type CandidateRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Candidate string `json:"candidate"`
}

// CallResponse acknowledges a relayed signaling event.
type CallResponse struct {
	Relayed bool `json:"relayed"`
}

// InitiateCall handles call initiation. Unlike messaging there is no
// offline fallback: an unreachable target fails the call right away.
func (h *Handler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	h.relayPair(w, r, h.chat.InitiateCall)
}

// AcceptCall handles call acceptance.
func (h *Handler) AcceptCall(w http.ResponseWriter, r *http.Request) {
	h.relayPair(w, r, h.chat.AcceptCall)
}

// EndCall handles call termination. Ending a call with an unreachable
// peer succeeds: hung-up is an idempotent terminal state.
func (h *Handler) EndCall(w http.ResponseWriter, r *http.Request) {
	h.relayPair(w, r, h.chat.EndCall)
}

// SendSignal relays a WebRTC offer or answer without interpreting it.
func (h *Handler) SendSignal(w http.ResponseWriter, r *http.Request) {
	var req SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.writeRelayResult(w, h.chat.SendSignal(r.Context(), req.From, req.To, req.Type, req.Payload))
}

// SendICECandidate relays an ICE candidate.
func (h *Handler) SendICECandidate(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.writeRelayResult(w, h.chat.SendICECandidate(r.Context(), req.From, req.To, req.Candidate))
}

// SendAudioChunk relays a raw in-call audio fragment. Sender and target
// come from query parameters, the body is the audio payload.
func (h *Handler) SendAudioChunk(w http.ResponseWriter, r *http.Request) {
	from := sanitizeName(r.URL.Query().Get("from"))
	to := sanitizeName(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		h.Error(w, http.StatusBadRequest, "from and to are required")
		return
	}

	chunk, err := io.ReadAll(r.Body)
	if err != nil || len(chunk) == 0 {
		h.Error(w, http.StatusBadRequest, "audio payload is required")
		return
	}

	h.writeRelayResult(w, h.chat.SendAudioChunk(r.Context(), from, to, chunk))
}

func (h *Handler) relayPair(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, from, to string) error) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	from := sanitizeName(req.From)
	to := sanitizeName(req.To)
	if from == "" || to == "" {
		h.Error(w, http.StatusBadRequest, "from and to are required")
		return
	}

	h.writeRelayResult(w, op(r.Context(), from, to))
}

func (h *Handler) writeRelayResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		h.JSON(w, http.StatusOK, CallResponse{Relayed: true})
	case errors.Is(err, core.ErrTargetOffline):
		h.Error(w, http.StatusNotFound, "target is offline")
	default:
		h.Error(w, http.StatusBadGateway, "failed to relay signal")
	}
}
