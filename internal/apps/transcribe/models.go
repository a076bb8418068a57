package transcribe

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transcript stores the text result of one speech-to-text run. The source
// audio is kept so the caller can re-listen while reading.
type Transcript struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	FileName        string         `gorm:"size:255" json:"file_name"`
	Text            string         `gorm:"type:text;not null" json:"text"`
	LanguageCode    string         `gorm:"size:10" json:"language_code"`
	DurationSeconds float64        `json:"duration_seconds"`
	StorageKey      string         `gorm:"size:255;not null" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Transcript) TableName() string {
	return "transcripts"
}

func (t *Transcript) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type TranscriptResponse struct {
	ID              uuid.UUID `json:"id"`
	FileName        string    `json:"file_name"`
	Text            string    `json:"text"`
	LanguageCode    string    `json:"language_code"`
	DurationSeconds float64   `json:"duration_seconds"`
	AudioURL        string    `json:"audio_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListItem struct {
	ID              uuid.UUID `json:"id"`
	FileName        string    `json:"file_name"`
	LanguageCode    string    `json:"language_code"`
	DurationSeconds float64   `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListResponse struct {
	Data       []ListItem `json:"data"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalCount int64      `json:"total_count"`
}
