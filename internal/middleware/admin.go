package middleware

import (
	"strings"

	"github.com/audiomint/audiomint-backend/internal/config"
	"github.com/audiomint/audiomint-backend/internal/dto"
	"github.com/audiomint/audiomint-backend/internal/identity"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired allows access when any of these match:
// 1. X-Admin-Token header equals the configured admin token
// 2. The caller's email or user id is on the configured allow-list
// 3. The resolved user's DB role is admin
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			if c.Get("X-Admin-Token") == cfg.AdminToken {
				return c.Next()
			}
		}

		user, err := identity.CurrentUser(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if contains(adminEmails, user.Email) || contains(adminUserIDs, user.ID.String()) {
			return c.Next()
		}

		if user.Role == "admin" {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
