package transcribe

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/apps"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "transcribe" }

func (p *Plugin) Models() []interface{} {
	return []interface{}{
		&Transcript{},
	}
}

func (p *Plugin) RegisterRoutes(router fiber.Router, deps *apps.Deps) {
	service := NewService(deps.DB, deps.Store, deps.Gate, deps.Events, deps.Provider, deps.Cfg.MaxUploadBytes)
	handler := NewHandler(service)

	router.Post("/transcripts", handler.Transcribe)
	router.Get("/transcripts", handler.List)
	router.Get("/transcripts/:id", handler.Get)
	router.Delete("/transcripts/:id", handler.Delete)
}
