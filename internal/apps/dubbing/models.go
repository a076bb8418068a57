package dubbing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dub states. The record mirrors provider state on caller-driven polls:
// pending -> dubbing -> dubbed | failed. Dubbed and failed are terminal.
const (
	StatusPending = "pending"
	StatusDubbing = "dubbing"
	StatusDubbed  = "dubbed"
	StatusFailed  = "failed"
)

// Dub stores one dubbing job and, once finished, its stored audio.
type Dub struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderJobID   string         `gorm:"size:100;not null;index" json:"-"`
	Name            string         `gorm:"size:255" json:"name"`
	SourceLang      string         `gorm:"size:10" json:"source_lang"`
	TargetLang      string         `gorm:"size:10;not null" json:"target_lang"`
	DurationSeconds int64          `gorm:"not null" json:"duration_seconds"`
	StorageKey      string         `gorm:"size:255" json:"-"`
	Status          string         `gorm:"size:20;not null;default:'pending'" json:"status"`
	ErrorMessage    string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Dub) TableName() string {
	return "dubs"
}

func (d *Dub) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type CreateResponse struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	TargetLang      string    `json:"target_lang"`
	DurationSeconds int64     `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

type StatusResponse struct {
	ID       uuid.UUID `json:"id"`
	Status   string    `json:"status"`
	AudioURL string    `json:"audio_url,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type DubResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	SourceLang      string    `json:"source_lang"`
	TargetLang      string    `json:"target_lang"`
	DurationSeconds int64     `json:"duration_seconds"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type ListResponse struct {
	Data       []DubResponse `json:"data"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
}
