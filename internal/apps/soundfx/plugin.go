package soundfx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/apps"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "soundfx" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&SoundEffect{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Gate, deps.Events, deps.Provider)
	handler := NewHandler(service)

	router.Post("/sound-effects", handler.Generate)
	router.Get("/sound-effects", handler.List)
	router.Get("/sound-effects/:id/audio", handler.Audio)
	router.Delete("/sound-effects/:id", handler.Delete)
}
