package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ghostwriter-backend/internal/handlers"
	"ghostwriter-backend/internal/middleware"
	"ghostwriter-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	transcriptHandler *handlers.TranscriptHandler,
	dnaHandler *handlers.DNAHandler,
	ghostwriteHandler *handlers.GhostwriteHandler,
	creditsHandler *handlers.CreditsHandler,
	webhookHandler *handlers.WebhookHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Transcript acquisition is the expensive path (10 req/min per IP)
	transcriptLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Transcript ────
		r.Group(func(r chi.Router) {
			r.Use(transcriptLimiter.Middleware)
			r.Use(jwtAuth.Middleware)
			r.Post("/transcript", transcriptHandler.Fetch)
		})

		// ──── Voice DNA ────
		r.Route("/dna", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", dnaHandler.Profile)
			r.Post("/upload", dnaHandler.ProfileUpload)
		})

		// ──── Generation & Credits ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/ghostwrite", ghostwriteHandler.Generate)
			r.Get("/credits", creditsHandler.Get)
		})

		// ──── Payment Webhooks (signature-authenticated, no JWT) ────
		r.Post("/webhooks/lemonsqueezy", webhookHandler.HandleLemonSqueezy)

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
