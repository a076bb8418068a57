package soundfx

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/audiomint/audiomint-backend/internal/identity"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Generate(c *fiber.Ctx) error {
	user, err := identity.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request body"})
	}

	resp, err := h.service.Generate(c.UserContext(), user, req)
	if err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	items, total, err := h.service.List(c.UserContext(), userID, page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to fetch sound effects"})
	}

	data := make([]EffectResponse, 0, len(items))
	for _, e := range items {
		data = append(data, EffectResponse{
			ID: e.ID, Prompt: e.Prompt,
			DurationSeconds: e.DurationSeconds, CreatedAt: e.CreatedAt,
		})
	}

	return c.JSON(ListResponse{Data: data, Page: page, PageSize: pageSize, TotalCount: total})
}

func (h *Handler) Audio(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid sound effect ID"})
	}

	url, err := h.service.AudioURL(c.UserContext(), userID, id)
	if err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.Redirect(url, fiber.StatusFound)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid sound effect ID"})
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
