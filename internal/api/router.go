package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/api/middleware"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/handlers"
)

// NewRouter creates and configures the HTTP router. The websocket
// session endpoint is passed in from the transport package so the API
// layer stays transport-agnostic.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, wsHandler http.HandlerFunc, maxBody int64) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(maxBody))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - any client may talk to the relay
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Session lifecycle. /ws binds a live push channel; /login is the
	// polling-only variant.
	r.Get("/ws", wsHandler)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/pending/{user}", h.PollPending)

	// Messaging
	r.Post("/dm/{user}", h.SendDirect)
	r.Post("/dm/{user}/voice", h.SendVoiceDirect)
	r.Post("/group/{name}/messages", h.SendGroup)
	r.Post("/group/{name}/voice", h.SendVoiceGroup)

	// Directory
	r.Get("/online", h.ListOnline)
	r.Get("/users", h.ListAll)
	r.Get("/users/{user}/groups", h.GetUserGroups)
	r.Get("/users/{user}/history", h.GetHistory)
	r.Post("/groups", h.CreateGroup)
	r.Get("/groups", h.ListGroups)
	r.Get("/group/{name}/members", h.GetMembers)
	r.Post("/group/{name}/members", h.AddMember)

	// Call signaling
	r.Post("/call/initiate", h.InitiateCall)
	r.Post("/call/accept", h.AcceptCall)
	r.Post("/call/end", h.EndCall)
	r.Post("/call/signal", h.SendSignal)
	r.Post("/call/candidate", h.SendICECandidate)
	r.Post("/call/audio", h.SendAudioChunk)

	return r
}
