package soundfx

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoundEffect stores one generated effect clip.
type SoundEffect struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Prompt          string         `gorm:"type:text;not null" json:"prompt"`
	DurationSeconds float64        `gorm:"not null" json:"duration_seconds"`
	StorageKey      string         `gorm:"size:255;not null" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (SoundEffect) TableName() string {
	return "sound_effects"
}

func (e *SoundEffect) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type GenerateRequest struct {
	Prompt          string  `json:"prompt"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type GenerateResponse struct {
	ID              uuid.UUID `json:"id"`
	AudioURL        string    `json:"audio_url"`
	Prompt          string    `json:"prompt"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type EffectResponse struct {
	ID              uuid.UUID `json:"id"`
	Prompt          string    `json:"prompt"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListResponse struct {
	Data       []EffectResponse `json:"data"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalCount int64            `json:"total_count"`
}
