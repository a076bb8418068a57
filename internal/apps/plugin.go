package apps

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/audiomint/audiomint-backend/internal/analytics"
	"github.com/audiomint/audiomint-backend/internal/config"
	"github.com/audiomint/audiomint-backend/internal/provider/elevenlabs"
	"github.com/audiomint/audiomint-backend/internal/quota"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

// Deps bundles the shared collaborators handed to every feature plugin.
type Deps struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Store    storage.BlobStore
	Gate     *quota.Gate
	Events   analytics.Emitter
	Provider *elevenlabs.Client
}

// Plugin defines the interface every audio feature must implement.
type Plugin interface {
	// ID returns the unique feature identifier.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts feature routes on the given Fiber group.
	// The group is already prefixed with /api and has JWT middleware and
	// user resolution applied.
	RegisterRoutes(router fiber.Router, deps *Deps)
}

// AdminPlugin extends Plugin with admin-only route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has JWT, user resolution, and admin middleware applied.
	RegisterAdminRoutes(router fiber.Router, deps *Deps)
}
