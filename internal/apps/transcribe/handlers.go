package transcribe

import (
	"io"
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

func (h *Handler) Transcribe(c *fiber.Ctx) error {
	user, err := identity.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "File is required"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Failed to read file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Failed to read file"})
	}

	resp, err := h.service.Transcribe(c.UserContext(), user, TranscribeInput{
		FileName: fileHeader.Filename,
		File:     data,
	})
	if err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid transcript ID"})
	}

	resp, err := h.service.GetByID(c.UserContext(), userID, id)
	if err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.JSON(resp)
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
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to fetch transcripts"})
	}

	data := make([]ListItem, 0, len(items))
	for _, t := range items {
		data = append(data, ListItem{
			ID: t.ID, FileName: t.FileName,
			LanguageCode: t.LanguageCode, DurationSeconds: t.DurationSeconds,
			CreatedAt: t.CreatedAt,
		})
	}

	return c.JSON(ListResponse{Data: data, Page: page, PageSize: pageSize, TotalCount: total})
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid transcript ID"})
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
