package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsagePeriod accumulates per-user consumption for one billing period
// (calendar month, UTC). One row per user per period.
type UsagePeriod struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_period" json:"user_id"`
	PeriodStart          time.Time `gorm:"not null;uniqueIndex:idx_usage_user_period" json:"period_start"`
	PeriodEnd            time.Time `gorm:"not null" json:"period_end"`
	CharactersUsed       int64     `gorm:"not null;default:0" json:"characters_used"`
	DubbingSecondsUsed   int64     `gorm:"not null;default:0" json:"dubbing_seconds_used"`
	SoundEffectsUsed     int64     `gorm:"not null;default:0" json:"sound_effects_used"`
	VoiceConversionsUsed int64     `gorm:"not null;default:0" json:"voice_conversions_used"`
	TranscriptionsUsed   int64     `gorm:"not null;default:0" json:"transcriptions_used"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (UsagePeriod) TableName() string {
	return "usage_periods"
}

// BeforeCreate fills the id when the database has no uuid default (sqlite).
func (p *UsagePeriod) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
