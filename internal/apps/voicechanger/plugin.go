package voicechanger

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/apps"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "voicechanger" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Conversion{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Gate, deps.Events, deps.Provider, deps.Cfg.MaxUploadBytes)
	handler := NewHandler(service)

	router.Post("/voice-changer", handler.Convert)
	router.Post("/voice-isolator", handler.Isolate)
	router.Get("/voice-changer", handler.List)
	router.Get("/voice-changer/:id", handler.Get)
	router.Delete("/voice-changer/:id", handler.Delete)
}
