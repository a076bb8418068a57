package soundfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/audiomint/audiomint-backend/internal/analytics"
	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
	"github.com/audiomint/audiomint-backend/internal/plans"
	"github.com/audiomint/audiomint-backend/internal/reporting"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

const feature = "soundfx"

// Provider duration bounds (seconds).
const (
	minDuration = 0.5
	maxDuration = 22.0
)

type Provider interface {
	GenerateSoundEffect(ctx context.Context, prompt string, durationSeconds float64) ([]byte, error)
}

type Service struct {
	db       *gorm.DB
	store    storage.BlobStore
	gate     pipeline.QuotaGate
	events   analytics.Emitter
	provider Provider
}

func NewService(db *gorm.DB, store storage.BlobStore, gate pipeline.QuotaGate, events analytics.Emitter, provider Provider) *Service {
	return &Service{db: db, store: store, gate: gate, events: events, provider: provider}
}

// Generate creates one sound effect. Cost is one generation of quota
// regardless of duration.
func (s *Service) Generate(ctx context.Context, user *models.User, req GenerateRequest) (*GenerateResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)

	rec, err := pipeline.Run(ctx, s.store, s.gate, pipeline.Op[[]byte, *SoundEffect]{
		Feature: feature,
		User:    user,
		Metric:  plans.MetricSoundEffects,
		Cost:    1,
		Validate: func() error {
			if prompt == "" {
				return pipeline.Invalidf("prompt is required")
			}
			if req.DurationSeconds != 0 && (req.DurationSeconds < minDuration || req.DurationSeconds > maxDuration) {
				return pipeline.Invalidf("duration must be between %.1f and %.1f seconds", minDuration, maxDuration)
			}
			return nil
		},
		Call: func(ctx context.Context) ([]byte, error) {
			return s.provider.GenerateSoundEffect(ctx, prompt, req.DurationSeconds)
		},
		Blobs: func(audio []byte) []pipeline.Blob {
			return []pipeline.Blob{{Key: storage.NewKey(feature, "mp3"), Data: audio, ContentType: "audio/mpeg"}}
		},
		Persist: func(ctx context.Context, _ []byte, keys []string) (*SoundEffect, error) {
			effect := &SoundEffect{
				UserID:          user.ID,
				Prompt:          prompt,
				DurationSeconds: req.DurationSeconds,
				StorageKey:      keys[0],
			}
			if err := s.db.WithContext(ctx).Create(effect).Error; err != nil {
				return nil, err
			}
			return effect, nil
		},
		Remove: func(ctx context.Context, effect *SoundEffect) error {
			return s.db.WithContext(ctx).Unscoped().Delete(effect).Error
		},
	})
	if err != nil {
		reporting.Capture(feature, "generate", user.ID, err)
		return nil, err
	}

	audioURL, err := s.store.PresignGet(ctx, rec.StorageKey)
	if err != nil {
		slog.Error("failed to presign sound effect", "feature", feature, "user_id", user.ID.String(), "error", err)
	}

	s.events.Emit("sound_effect_generated", user.ID, map[string]interface{}{
		"duration_seconds": rec.DurationSeconds,
	})

	return &GenerateResponse{
		ID:              rec.ID,
		AudioURL:        audioURL,
		Prompt:          rec.Prompt,
		DurationSeconds: rec.DurationSeconds,
		CreatedAt:       rec.CreatedAt,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id uuid.UUID) (*SoundEffect, error) {
	var effect SoundEffect
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&effect).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: sound effect %s", pipeline.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &effect, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]SoundEffect, int64, error) {
	var items []SoundEffect
	var total int64

	offset := (page - 1) * pageSize

	if err := s.db.WithContext(ctx).Model(&SoundEffect{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *Service) AudioURL(ctx context.Context, userID, id uuid.UUID) (string, error) {
	effect, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, effect.StorageKey)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	effect, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, effect.StorageKey); err != nil {
		slog.Error("failed to delete sound effect blob", "feature", feature, "user_id", userID.String(), "key", effect.StorageKey, "error", err)
	}

	return s.db.WithContext(ctx).Delete(effect).Error
}
