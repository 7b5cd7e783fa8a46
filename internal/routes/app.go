package routes

import (
	"github.com/ntousis/aeolus-api/internal/cache"
	"github.com/ntousis/aeolus-api/internal/config"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/inference"
	"github.com/ntousis/aeolus-api/internal/model"
	"github.com/rs/zerolog"
)

type App struct {
	Store     *db.DB
	Cache     cache.Cache
	Inference *inference.Client
	Artifacts *model.Artifacts
	Config    *config.APIConfig
	logger    zerolog.Logger
}

func New(store *db.DB, c cache.Cache, inf *inference.Client, artifacts *model.Artifacts, cfg *config.APIConfig, logger zerolog.Logger) *App {
	return &App{
		store,
		c,
		inf,
		artifacts,
		cfg,
		logger,
	}
}
