package tts

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/apps"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "tts" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Generation{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Gate, deps.Events, deps.Provider, deps.Cfg.MaxTextChars)
	handler := NewHandler(service)

	router.Post("/tts", handler.Generate)
	router.Get("/tts", handler.List)
	router.Get("/tts/:id", handler.GetByID)
	router.Get("/tts/:id/audio", handler.Audio)
	router.Delete("/tts/:id", handler.Delete)
}
