package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/audiomint/audiomint-backend/internal/analytics"
	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
	"github.com/audiomint/audiomint-backend/internal/plans"
	"github.com/audiomint/audiomint-backend/internal/provider/elevenlabs"
	"github.com/audiomint/audiomint-backend/internal/reporting"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

const feature = "transcribe"

var allowedAudioExts = []string{"mp3", "wav", "m4a", "ogg", "webm", "flac", "mp4"}

type Provider interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (*elevenlabs.Transcription, error)
}

type TranscribeInput struct {
	FileName string
	File     []byte
}

type Service struct {
	db             *gorm.DB
	store          storage.BlobStore
	gate           pipeline.QuotaGate
	events         analytics.Emitter
	provider       Provider
	maxUploadBytes int64
}

func NewService(db *gorm.DB, store storage.BlobStore, gate pipeline.QuotaGate, events analytics.Emitter, provider Provider, maxUploadBytes int64) *Service {
	return &Service{db: db, store: store, gate: gate, events: events, provider: provider, maxUploadBytes: maxUploadBytes}
}

// Transcribe converts one uploaded clip to text and keeps the source audio.
func (s *Service) Transcribe(ctx context.Context, user *models.User, in TranscribeInput) (*TranscriptResponse, error) {
	rec, err := pipeline.Run(ctx, s.store, s.gate, pipeline.Op[*elevenlabs.Transcription, *Transcript]{
		Feature: feature,
		User:    user,
		Metric:  plans.MetricTranscriptions,
		Cost:    1,
		Validate: func() error {
			return pipeline.ValidateUpload(in.FileName, int64(len(in.File)), s.maxUploadBytes, allowedAudioExts)
		},
		Call: func(ctx context.Context) (*elevenlabs.Transcription, error) {
			return s.provider.Transcribe(ctx, in.FileName, in.File)
		},
		Blobs: func(_ *elevenlabs.Transcription) []pipeline.Blob {
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(in.FileName), "."))
			if ext == "" {
				ext = "mp3"
			}
			return []pipeline.Blob{
				{Key: storage.NewKey(feature, ext), Data: in.File, ContentType: "application/octet-stream"},
			}
		},
		Persist: func(ctx context.Context, tr *elevenlabs.Transcription, keys []string) (*Transcript, error) {
			t := &Transcript{
				UserID:          user.ID,
				FileName:        in.FileName,
				Text:            tr.Text,
				LanguageCode:    tr.LanguageCode,
				DurationSeconds: tr.Duration,
				StorageKey:      keys[0],
			}
			if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
				return nil, err
			}
			return t, nil
		},
		Remove: func(ctx context.Context, t *Transcript) error {
			return s.db.WithContext(ctx).Unscoped().Delete(t).Error
		},
	})
	if err != nil {
		reporting.Capture(feature, "transcribe", user.ID, err)
		return nil, err
	}

	s.events.Emit("transcription_completed", user.ID, map[string]interface{}{
		"language_code":    rec.LanguageCode,
		"duration_seconds": rec.DurationSeconds,
	})

	return s.response(ctx, rec), nil
}

func (s *Service) response(ctx context.Context, t *Transcript) *TranscriptResponse {
	audioURL, err := s.store.PresignGet(ctx, t.StorageKey)
	if err != nil {
		slog.Error("failed to presign transcript audio", "feature", feature, "key", t.StorageKey, "error", err)
	}
	return &TranscriptResponse{
		ID:              t.ID,
		FileName:        t.FileName,
		Text:            t.Text,
		LanguageCode:    t.LanguageCode,
		DurationSeconds: t.DurationSeconds,
		AudioURL:        audioURL,
		CreatedAt:       t.CreatedAt,
	}
}

func (s *Service) GetByID(ctx context.Context, userID, id uuid.UUID) (*TranscriptResponse, error) {
	var t Transcript
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: transcript %s", pipeline.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return s.response(ctx, &t), nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Transcript, int64, error) {
	var items []Transcript
	var total int64

	offset := (page - 1) * pageSize

	if err := s.db.WithContext(ctx).Model(&Transcript{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var t Transcript
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: transcript %s", pipeline.ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, t.StorageKey); err != nil {
		slog.Error("failed to delete transcript blob", "feature", feature, "user_id", userID.String(), "key", t.StorageKey, "error", err)
	}

	return s.db.WithContext(ctx).Delete(&t).Error
}
