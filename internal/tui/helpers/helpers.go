package helpers

import (
	"staticcms/internal/auth"
	"staticcms/internal/config"
	"staticcms/internal/gitsync"
	"staticcms/internal/githubapi"
	"staticcms/internal/logging"
)

// UIContext carries the window dimensions and application services that
// screen models need.
type UIContext struct {
	Width  int
	Height int
	Config *config.Config
	Logger *logging.AppLogger
	Auth   *auth.Coordinator
	API    *githubapi.Client
	Engine *gitsync.Engine
}

// NewUIContext creates a UI context with the provided parameters.
func NewUIContext(width, height int, cfg *config.Config, logger *logging.AppLogger, coordinator *auth.Coordinator, api *githubapi.Client, engine *gitsync.Engine) UIContext {
	return UIContext{
		Width:  width,
		Height: height,
		Config: cfg,
		Logger: logger,
		Auth:   coordinator,
		API:    api,
		Engine: engine,
	}
}

// HasValidDimensions checks if the context has valid window dimensions.
func (ctx UIContext) HasValidDimensions() bool {
	return ctx.Width > 0 && ctx.Height > 0
}
