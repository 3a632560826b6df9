package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/srt-flow/backend/internal/api/handlers"
	"github.com/srt-flow/backend/internal/api/middleware"
	"github.com/srt-flow/backend/internal/auth"
	"github.com/srt-flow/backend/internal/config"
	"github.com/srt-flow/backend/internal/db"
	"github.com/srt-flow/backend/internal/pipeline"
	"github.com/srt-flow/backend/internal/storage"
)

// jsonBodyLimit caps request bodies on JSON routes. File uploads use the
// multipart limit in the pipeline handler instead.
const jsonBodyLimit = 1 << 20

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, pipe *pipeline.Pipeline, store *storage.Store) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	pipelineHandler := handlers.NewPipelineHandler(pipe, store)
	runsHandler := handlers.NewRunsHandler(database, store)
	settingsHandler := handlers.NewSettingsHandler(database)
	modelsHandler := handlers.NewGeminiModelsHandler(database)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.With(loginLimiter.Handler, middleware.MaxBodySize(jsonBodyLimit)).
			Post("/auth/login", authHandler.Login)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			r.Get("/auth/me", authHandler.Me)

			// Pipeline
			r.Get("/pipeline", pipelineHandler.Status)
			r.Post("/pipeline/upload", pipelineHandler.Upload)
			r.Post("/pipeline/translate", pipelineHandler.Translate)
			r.Post("/pipeline/reset", pipelineHandler.Reset)
			r.Get("/pipeline/download", pipelineHandler.Download)

			// Run history
			r.Get("/runs", runsHandler.List)
			r.Get("/runs/{id}", runsHandler.Get)
			r.Get("/runs/{id}/download", runsHandler.DownloadOutput)
			r.Delete("/runs/{id}", runsHandler.Delete)

			// Settings (updates carry API keys; admins only)
			r.With(middleware.RequireRole("admin"), middleware.MaxBodySize(jsonBodyLimit)).
				Put("/settings", settingsHandler.UpdateSettings)
			r.Get("/settings", settingsHandler.GetSettings)

			// Models
			r.Get("/models/gemini", modelsHandler.ListModels)
		})
	})

	return r
}
