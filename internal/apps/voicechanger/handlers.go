package voicechanger

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/audiomint/audiomint-backend/internal/identity"
	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Convert(c *fiber.Ctx) error {
	return h.handleUpload(c, func(user *models.User, in ProcessInput) (*ConversionResponse, error) {
		in.VoiceID = c.FormValue("voice_id")
		return h.service.Convert(c.UserContext(), user, in)
	})
}

func (h *Handler) Isolate(c *fiber.Ctx) error {
	return h.handleUpload(c, func(user *models.User, in ProcessInput) (*ConversionResponse, error) {
		return h.service.Isolate(c.UserContext(), user, in)
	})
}

func (h *Handler) handleUpload(c *fiber.Ctx, run func(user *models.User, in ProcessInput) (*ConversionResponse, error)) error {
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

	resp, err := run(user, ProcessInput{FileName: fileHeader.Filename, File: data})
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
	kind := c.Query("kind")

	items, total, err := h.service.List(c.UserContext(), userID, kind, page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to fetch conversions"})
	}

	data := make([]ConversionResponse, 0, len(items))
	for _, cv := range items {
		data = append(data, ConversionResponse{
			ID: cv.ID, Kind: cv.Kind, VoiceID: cv.VoiceID,
			FileName: cv.FileName, CreatedAt: cv.CreatedAt,
		})
	}

	return c.JSON(ListResponse{Data: data, Page: page, PageSize: pageSize, TotalCount: total})
}

func (h *Handler) Get(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid conversion ID"})
	}

	resp, err := h.service.URLs(c.UserContext(), userID, id)
	if err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.JSON(resp)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, err := identity.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid conversion ID"})
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return c.Status(pipeline.HTTPStatus(err)).JSON(fiber.Map{"error": true, "message": pipeline.UserMessage(err)})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
