package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/audiomint/audiomint-backend/internal/analytics"
	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
	"github.com/audiomint/audiomint-backend/internal/plans"
	"github.com/audiomint/audiomint-backend/internal/reporting"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

const feature = "tts"

// Provider is the slice of the ElevenLabs client this service calls.
type Provider interface {
	TextToSpeech(ctx context.Context, voiceID, text, modelID string) ([]byte, error)
}

type Service struct {
	db       *gorm.DB
	store    storage.BlobStore
	gate     pipeline.QuotaGate
	events   analytics.Emitter
	provider Provider
	maxChars int
}

func NewService(db *gorm.DB, store storage.BlobStore, gate pipeline.QuotaGate, events analytics.Emitter, provider Provider, maxChars int) *Service {
	return &Service{db: db, store: store, gate: gate, events: events, provider: provider, maxChars: maxChars}
}

// Generate synthesizes speech for the given text. Cost is one character of
// quota per character of input.
func (s *Service) Generate(ctx context.Context, user *models.User, req GenerateRequest) (*GenerateResponse, error) {
	text := strings.TrimSpace(req.Text)
	cost := int64(utf8.RuneCountInString(text))

	rec, err := pipeline.Run(ctx, s.store, s.gate, pipeline.Op[[]byte, *Generation]{
		Feature: feature,
		User:    user,
		Metric:  plans.MetricCharacters,
		Cost:    cost,
		Validate: func() error {
			if text == "" {
				return pipeline.Invalidf("text is required")
			}
			if s.maxChars > 0 && int(cost) > s.maxChars {
				return pipeline.Invalidf("text too long: %d characters (max %d)", cost, s.maxChars)
			}
			if strings.TrimSpace(req.VoiceID) == "" {
				return pipeline.Invalidf("voice_id is required")
			}
			return nil
		},
		Call: func(ctx context.Context) ([]byte, error) {
			return s.provider.TextToSpeech(ctx, req.VoiceID, text, req.ModelID)
		},
		Blobs: func(audio []byte) []pipeline.Blob {
			return []pipeline.Blob{{Key: storage.NewKey(feature, "mp3"), Data: audio, ContentType: "audio/mpeg"}}
		},
		Persist: func(ctx context.Context, _ []byte, keys []string) (*Generation, error) {
			gen := &Generation{
				UserID:        user.ID,
				VoiceID:       req.VoiceID,
				VoiceName:     req.VoiceName,
				ModelID:       req.ModelID,
				Text:          text,
				CharacterCost: cost,
				StorageKey:    keys[0],
				Status:        "completed",
			}
			if err := s.db.WithContext(ctx).Create(gen).Error; err != nil {
				return nil, err
			}
			return gen, nil
		},
		Remove: func(ctx context.Context, gen *Generation) error {
			return s.db.WithContext(ctx).Unscoped().Delete(gen).Error
		},
	})
	if err != nil {
		reporting.Capture(feature, "generate", user.ID, err)
		return nil, err
	}

	audioURL, err := s.store.PresignGet(ctx, rec.StorageKey)
	if err != nil {
		slog.Error("failed to presign tts audio", "feature", feature, "user_id", user.ID.String(), "error", err)
	}

	s.events.Emit("tts_generated", user.ID, map[string]interface{}{
		"voice_id":   rec.VoiceID,
		"characters": cost,
	})

	return &GenerateResponse{
		ID:            rec.ID,
		AudioURL:      audioURL,
		VoiceID:       rec.VoiceID,
		VoiceName:     rec.VoiceName,
		CharacterCost: rec.CharacterCost,
		CreatedAt:     rec.CreatedAt,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id uuid.UUID) (*Generation, error) {
	var gen Generation
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&gen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: generation %s", pipeline.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Generation, int64, error) {
	var items []Generation
	var total int64

	offset := (page - 1) * pageSize

	if err := s.db.WithContext(ctx).Model(&Generation{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// AudioURL returns a short-lived retrieval URL for a generation the caller owns.
func (s *Service) AudioURL(ctx context.Context, userID, id uuid.UUID) (string, error) {
	gen, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, gen.StorageKey)
}

// Delete removes the record and its stored audio. The blob delete is
// best-effort: an orphaned blob is preferable to a row the user cannot remove.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	gen, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, gen.StorageKey); err != nil {
		slog.Error("failed to delete tts blob", "feature", feature, "user_id", userID.String(), "key", gen.StorageKey, "error", err)
	}

	return s.db.WithContext(ctx).Delete(gen).Error
}
