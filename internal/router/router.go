package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"learnai-backend/internal/handlers"
	"learnai-backend/internal/logger"
	"learnai-backend/internal/middleware"
	"learnai-backend/internal/websocket"
)

func New(
	log *logger.Logger,
	jwtAuth *middleware.JWTAuth,
	aiLimiter middleware.Limiter,
	documentHandler *handlers.DocumentHandler,
	studyHandler *handlers.StudyHandler,
	flashcardHandler *handlers.FlashcardHandler,
	quizAttemptHandler *handlers.QuizAttemptHandler,
	chatHandler *handlers.ChatHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// The hub authenticates from the token query param itself.
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			// ──── Documents ────
			r.Route("/documents", func(r chi.Router) {
				r.Post("/", documentHandler.Create)
				r.Get("/", documentHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", documentHandler.Get)
					r.Put("/", documentHandler.Update)
					r.Delete("/", documentHandler.Delete)

					r.Get("/flashcards", flashcardHandler.List)
					r.Post("/flashcards/save", flashcardHandler.Save)
					r.Get("/quiz-attempts", quizAttemptHandler.List)
					r.Post("/quiz-attempts", quizAttemptHandler.Create)

					// Model-backed routes share the per-user AI quota.
					r.Group(func(r chi.Router) {
						r.Use(middleware.RateLimit(aiLimiter))
						r.Post("/summary", studyHandler.Summary)
						r.Post("/flashcards", studyHandler.Flashcards)
						r.Post("/quiz", studyHandler.Quiz)
						r.Post("/notes", studyHandler.Notes)
						r.Post("/explain", studyHandler.Explain)
						r.Post("/audio", studyHandler.Audio)
						r.Post("/audio/all", studyHandler.AudioAll)
						r.Post("/chat", chatHandler.Start)
					})
				})
			})

			r.Put("/flashcards/{id}/favorite", flashcardHandler.ToggleFavorite)

			r.Route("/chat/{sessionID}", func(r chi.Router) {
				r.Get("/", chatHandler.Get)
				r.With(middleware.RateLimit(aiLimiter)).Post("/messages", chatHandler.Send)
			})

			r.Get("/jobs/{id}", jobHandler.GetJob)

			r.With(middleware.RateLimit(aiLimiter)).Post("/study", studyHandler.Run)
		})
	})

	return r
}
