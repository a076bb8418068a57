package pipeline

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error kinds surfaced by generation flows. Handlers translate these into
// HTTP status codes; everything else maps to 500.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrUpstream      = errors.New("provider request failed")
	ErrPersistence   = errors.New("failed to persist generation")
	ErrUsageUpdate   = errors.New("failed to update usage")
)

// Invalidf builds an ErrInvalidInput with a human-readable detail.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UpstreamError carries the provider's status code and response body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider request failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// HTTPStatus maps an error kind to the HTTP status the API layer should return.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// UserMessage returns the message safe to show callers. Invalid-input and
// quota errors are actionable; upstream and persistence detail stays
// server-side.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrNotFound):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
