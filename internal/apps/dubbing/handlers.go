package dubbing

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

func (h *Handler) Create(c *fiber.Ctx) error {
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

	durationSeconds, _ := strconv.ParseInt(c.FormValue("duration_seconds"), 10, 64)

	resp, err := h.service.Create(c.UserContext(), user, CreateInput{
		Name:            c.FormValue("name"),
		SourceLang:      c.FormValue("source_lang"),
		TargetLang:      c.FormValue("target_lang"),
		DurationSeconds: durationSeconds,
		FileName:        fileHeader.Filename,
		File:            data,
	})
	if err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) Status(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid dub ID"})
	}

	resp, err := h.service.CheckStatus(c.UserContext(), userID, id)
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
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to fetch dubs"})
	}

	data := make([]DubResponse, 0, len(items))
	for _, d := range items {
		data = append(data, DubResponse{
			ID: d.ID, Name: d.Name,
			SourceLang: d.SourceLang, TargetLang: d.TargetLang,
			DurationSeconds: d.DurationSeconds, Status: d.Status,
			CreatedAt: d.CreatedAt,
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
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid dub ID"})
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
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid dub ID"})
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
