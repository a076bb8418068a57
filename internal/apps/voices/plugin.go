package voices

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/apps"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "voices" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Voice{},
		&UserVoice{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Events, deps.Provider)
	handler := NewHandler(service)

	if err := SeedCatalog(deps.DB); err != nil {
		slog.Error("voice catalog seeding failed", "error", err)
	}

	router.Get("/voices", handler.List)
	router.Post("/voices/:id/save", handler.ToggleSaved)
	router.Post("/voices/:id/favorite", handler.ToggleFavorite)
	router.Post("/voices/design", handler.Design)
	router.Delete("/voices/:id", handler.Delete)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Events, deps.Provider)
	handler := NewHandler(service)

	router.Post("/voices/seed", handler.Seed)
}
