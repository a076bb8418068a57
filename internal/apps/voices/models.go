package voices

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Voice categories.
const (
	CategoryPremade = "premade"
	CategoryCustom  = "custom"
)

// Voice is one catalog entry. Premade voices are shared and owner-less;
// custom (designed) voices belong to the user who made them.
type Voice struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExternalID  string         `gorm:"size:100;not null;uniqueIndex" json:"external_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:20;not null;default:'premade';index" json:"category"`
	Labels      datatypes.JSON `gorm:"type:jsonb" json:"labels,omitempty"`
	OwnerID     *uuid.UUID     `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	PreviewKey  string         `gorm:"size:255" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Voice) TableName() string {
	return "voices"
}

func (v *Voice) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// UserVoice carries one user's flags for one catalog voice.
type UserVoice struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_voice" json:"user_id"`
	VoiceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_voice" json:"voice_id"`
	Saved     bool      `gorm:"not null;default:false" json:"saved"`
	Favorite  bool      `gorm:"not null;default:false" json:"favorite"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserVoice) TableName() string {
	return "user_voices"
}

func (uv *UserVoice) BeforeCreate(*gorm.DB) error {
	if uv.ID == uuid.Nil {
		uv.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type VoiceResponse struct {
	ID          uuid.UUID      `json:"id"`
	ExternalID  string         `json:"external_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Labels      datatypes.JSON `json:"labels,omitempty"`
	PreviewURL  string         `json:"preview_url,omitempty"`
	Saved       bool           `json:"saved"`
	Favorite    bool           `json:"favorite"`
	Owned       bool           `json:"owned"`
	CreatedAt   time.Time      `json:"created_at"`
}

type ListResponse struct {
	Data []VoiceResponse `json:"data"`
}

type DesignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SampleText  string `json:"sample_text"`
}

type ToggleResponse struct {
	ID       uuid.UUID `json:"id"`
	Saved    bool      `json:"saved"`
	Favorite bool      `json:"favorite"`
}
