package dubbing

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/apps"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "dubbing" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Dub{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Gate, deps.Events, deps.Provider, deps.Cfg.MaxUploadBytes)
	handler := NewHandler(service)

	router.Post("/dubs", handler.Create)
	router.Get("/dubs", handler.List)
	router.Get("/dubs/:id/status", handler.Status)
	router.Get("/dubs/:id/audio", handler.Audio)
	router.Delete("/dubs/:id", handler.Delete)
}
