package dto

import (
	"time"

	"github.com/audiomint/audiomint-backend/internal/plans"
)

type UsageCounters struct {
	Characters       int64 `json:"characters"`
	DubbingSeconds   int64 `json:"dubbing_seconds"`
	SoundEffects     int64 `json:"sound_effects"`
	VoiceConversions int64 `json:"voice_conversions"`
	Transcriptions   int64 `json:"transcriptions"`
}

type SubscriptionState struct {
	ProductID        string    `json:"product_id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}

type UsageResponse struct {
	PlanTier     string             `json:"plan_tier"`
	PeriodStart  time.Time          `json:"period_start"`
	PeriodEnd    time.Time          `json:"period_end"`
	Limits       plans.Limits       `json:"limits"`
	Used         UsageCounters      `json:"used"`
	Subscription *SubscriptionState `json:"subscription,omitempty"`
}
