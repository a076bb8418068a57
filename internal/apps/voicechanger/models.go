package voicechanger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversion kinds.
const (
	KindConversion = "conversion"
	KindIsolation  = "isolation"
)

// Conversion stores one processed clip together with the original upload.
// Both blobs live under separate keys so the caller can replay either side.
type Conversion struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind         string         `gorm:"size:20;not null;index" json:"kind"`
	VoiceID      string         `gorm:"size:100" json:"voice_id,omitempty"`
	FileName     string         `gorm:"size:255" json:"file_name"`
	OriginalKey  string         `gorm:"size:255;not null" json:"-"`
	ConvertedKey string         `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Conversion) TableName() string {
	return "voice_conversions"
}

func (cv *Conversion) BeforeCreate(*gorm.DB) error {
	if cv.ID == uuid.Nil {
		cv.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type ConversionResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	VoiceID     string    `json:"voice_id,omitempty"`
	FileName    string    `json:"file_name"`
	AudioURL    string    `json:"audio_url,omitempty"`
	OriginalURL string    `json:"original_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListResponse struct {
	Data       []ConversionResponse `json:"data"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int64                `json:"total_count"`
}
