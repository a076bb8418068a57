package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/audiomint/audiomint-backend/internal/dto"
	"github.com/audiomint/audiomint-backend/internal/identity"
	"github.com/audiomint/audiomint-backend/internal/plans"
	"github.com/audiomint/audiomint-backend/internal/quota"
	"github.com/audiomint/audiomint-backend/internal/services"
)

type UsageHandler struct {
	gate                *quota.Gate
	subscriptionService *services.SubscriptionService
}

func NewUsageHandler(gate *quota.Gate, subscriptionService *services.SubscriptionService) *UsageHandler {
	return &UsageHandler{gate: gate, subscriptionService: subscriptionService}
}

// Current returns the running period's counters next to the plan's limits,
// plus subscription state. Drives the client-side quota UI.
func (h *UsageHandler) Current(c *fiber.Ctx) error {
	user, err := identity.CurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
	}

	period, err := h.gate.CurrentPeriod(c.UserContext(), user.ID)
	if err != nil {
		slog.Error("failed to load usage period", "user_id", user.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch usage"})
	}

	resp := dto.UsageResponse{
		PlanTier:    user.PlanTier,
		PeriodStart: period.PeriodStart,
		PeriodEnd:   period.PeriodEnd,
		Limits:      plans.ForTier(user.PlanTier),
		Used: dto.UsageCounters{
			Characters:       period.CharactersUsed,
			DubbingSeconds:   period.DubbingSecondsUsed,
			SoundEffects:     period.SoundEffectsUsed,
			VoiceConversions: period.VoiceConversionsUsed,
			Transcriptions:   period.TranscriptionsUsed,
		},
	}

	sub, err := h.subscriptionService.Current(user.ID)
	if err != nil {
		slog.Error("failed to load subscription", "user_id", user.ID.String(), "error", err)
	} else if sub != nil {
		resp.Subscription = &dto.SubscriptionState{
			ProductID:        sub.ProductID,
			Status:           sub.Status,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
		}
	}

	return c.JSON(resp)
}
