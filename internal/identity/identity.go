package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/audiomint/audiomint-backend/internal/models"
	"gorm.io/gorm"
)

const userLocal = "current_user"

// Claims extracts the subject and email from the verified JWT in context.
func Claims(c *fiber.Ctx) (subject, email string, err error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", "", errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}

	subject, ok = claims["sub"].(string)
	if !ok || subject == "" {
		return "", "", errors.New("missing sub claim")
	}
	email, _ = claims["email"].(string)
	return subject, email, nil
}

// Resolver maps the identity provider's token subject to an internal User,
// creating the row on first sign-in, and stashes it in context locals.
func Resolver(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, email, err := Claims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
		}

		var user models.User
		err = db.Where("subject = ?", subject).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Subject: subject, Email: email, PlanTier: "free"}
			if cerr := db.Create(&user).Error; cerr != nil {
				// A parallel first request may have won the insert.
				if ferr := db.Where("subject = ?", subject).First(&user).Error; ferr != nil {
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to resolve account"})
				}
			}
		} else if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to resolve account"})
		}

		c.Locals(userLocal, &user)
		return c.Next()
	}
}

// CurrentUser returns the resolved account set by Resolver.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(userLocal).(*models.User)
	if !ok || user == nil {
		return nil, errors.New("no resolved user in context")
	}
	return user, nil
}

// CurrentUserID is a convenience wrapper around CurrentUser.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	user, err := CurrentUser(c)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
