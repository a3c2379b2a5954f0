package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"fieldmap-service/internal/config"
	mapHnd "fieldmap-service/internal/mapping/handler"
	"fieldmap-service/internal/mapping/service"
	"fieldmap-service/internal/middleware"
	"fieldmap-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, eng *service.Engine) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)
	r.Get("/schema", mapHnd.Schema(eng))

	// the main endpoint
	r.Post("/map", mapHnd.Map(cfg, logger, eng))

	return r
}
