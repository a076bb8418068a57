package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/database"
	"github.com/audiomint/audiomint-backend/internal/dto"
)

type HealthHandler struct {
	featureCount int
}

func NewHealthHandler(featureCount int) *HealthHandler {
	return &HealthHandler{featureCount: featureCount}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		DB:           dbStatus,
		FeatureCount: h.featureCount,
	})
}
