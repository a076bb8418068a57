package tts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generation stores one finished text-to-speech run and where its audio lives.
type Generation struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	VoiceID       string         `gorm:"size:100;not null" json:"voice_id"`
	VoiceName     string         `gorm:"size:100" json:"voice_name"`
	ModelID       string         `gorm:"size:100" json:"model_id"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	CharacterCost int64          `gorm:"not null" json:"character_cost"`
	StorageKey    string         `gorm:"size:255;not null" json:"-"`
	Status        string         `gorm:"size:20;not null;default:'completed'" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Generation) TableName() string {
	return "tts_generations"
}

func (g *Generation) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type GenerateRequest struct {
	Text      string `json:"text"`
	VoiceID   string `json:"voice_id"`
	VoiceName string `json:"voice_name"`
	ModelID   string `json:"model_id"`
}

type GenerateResponse struct {
	ID            uuid.UUID `json:"id"`
	AudioURL      string    `json:"audio_url"`
	VoiceID       string    `json:"voice_id"`
	VoiceName     string    `json:"voice_name"`
	CharacterCost int64     `json:"character_cost"`
	CreatedAt     time.Time `json:"created_at"`
}

type GenerationResponse struct {
	ID            uuid.UUID `json:"id"`
	VoiceID       string    `json:"voice_id"`
	VoiceName     string    `json:"voice_name"`
	ModelID       string    `json:"model_id"`
	Text          string    `json:"text"`
	CharacterCost int64     `json:"character_cost"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListResponse struct {
	Data       []GenerationResponse `json:"data"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int64                `json:"total_count"`
}
