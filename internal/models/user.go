package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the internal account record. Sign-in happens at the identity
// provider; a row is created here the first time a token subject is resolved.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Subject   string         `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Email     string         `gorm:"size:255;not null;index" json:"email"`
	Role      string         `gorm:"size:20;default:'user'" json:"role"`
	PlanTier  string         `gorm:"size:20;not null;default:'free'" json:"plan_tier"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
