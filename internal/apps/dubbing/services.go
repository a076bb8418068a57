package dubbing

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
	"github.com/audiomint/audiomint-backend/internal/provider/elevenlabs"
	"github.com/audiomint/audiomint-backend/internal/reporting"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

const feature = "dubbing"

var allowedMediaExts = []string{"mp3", "wav", "m4a", "ogg", "webm", "mp4", "mov"}

type Provider interface {
	CreateDub(ctx context.Context, filename string, file []byte, sourceLang, targetLang, name string) (*elevenlabs.DubJob, error)
	GetDubStatus(ctx context.Context, dubbingID string) (*elevenlabs.DubStatus, error)
	DownloadDubbedAudio(ctx context.Context, dubbingID, languageCode string) ([]byte, error)
}

type CreateInput struct {
	Name            string
	SourceLang      string
	TargetLang      string
	DurationSeconds int64
	FileName        string
	File            []byte
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

// Create submits a dubbing job. Quota is charged in source-media seconds as
// declared by the caller; the dubbed audio is fetched and stored later, on a
// status poll that sees the job finished.
func (s *Service) Create(ctx context.Context, user *models.User, in CreateInput) (*CreateResponse, error) {
	targetLang := strings.ToLower(strings.TrimSpace(in.TargetLang))
	sourceLang := strings.ToLower(strings.TrimSpace(in.SourceLang))

	rec, err := pipeline.Run(ctx, s.store, s.gate, pipeline.Op[*elevenlabs.DubJob, *Dub]{
		Feature: feature,
		User:    user,
		Metric:  plans.MetricDubbingSeconds,
		Cost:    in.DurationSeconds,
		Validate: func() error {
			if targetLang == "" {
				return pipeline.Invalidf("target_lang is required")
			}
			if in.DurationSeconds <= 0 {
				return pipeline.Invalidf("duration_seconds must be positive")
			}
			return pipeline.ValidateUpload(in.FileName, int64(len(in.File)), s.maxUploadBytes, allowedMediaExts)
		},
		Call: func(ctx context.Context) (*elevenlabs.DubJob, error) {
			return s.provider.CreateDub(ctx, in.FileName, in.File, sourceLang, targetLang, in.Name)
		},
		Persist: func(ctx context.Context, job *elevenlabs.DubJob, _ []string) (*Dub, error) {
			dub := &Dub{
				UserID:          user.ID,
				ProviderJobID:   job.DubbingID,
				Name:            in.Name,
				SourceLang:      sourceLang,
				TargetLang:      targetLang,
				DurationSeconds: in.DurationSeconds,
				Status:          StatusPending,
			}
			if err := s.db.WithContext(ctx).Create(dub).Error; err != nil {
				return nil, err
			}
			return dub, nil
		},
		Remove: func(ctx context.Context, dub *Dub) error {
			return s.db.WithContext(ctx).Unscoped().Delete(dub).Error
		},
	})
	if err != nil {
		reporting.Capture(feature, "create", user.ID, err)
		return nil, err
	}

	s.events.Emit("dub_created", user.ID, map[string]interface{}{
		"target_lang":      rec.TargetLang,
		"duration_seconds": rec.DurationSeconds,
	})

	return &CreateResponse{
		ID:              rec.ID,
		Status:          rec.Status,
		TargetLang:      rec.TargetLang,
		DurationSeconds: rec.DurationSeconds,
		CreatedAt:       rec.CreatedAt,
	}, nil
}

// nextStatus maps a provider-reported state onto a stored one. Terminal
// states latch: once a dub is dubbed or failed it never changes again.
func nextStatus(current, provider string) string {
	if current == StatusDubbed || current == StatusFailed {
		return current
	}
	switch provider {
	case "dubbed":
		return StatusDubbed
	case "failed":
		return StatusFailed
	case "dubbing":
		return StatusDubbing
	default:
		return current
	}
}

// CheckStatus polls the provider for a non-terminal dub and mirrors the
// result. When the job has finished, the dubbed audio is downloaded and
// stored before the record flips to dubbed; a download failure leaves the
// record in dubbing so the next poll retries.
func (s *Service) CheckStatus(ctx context.Context, userID, id uuid.UUID) (*StatusResponse, error) {
	dub, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if dub.Status == StatusDubbed || dub.Status == StatusFailed {
		return s.statusResponse(ctx, dub)
	}

	st, err := s.provider.GetDubStatus(ctx, dub.ProviderJobID)
	if err != nil {
		reporting.Capture(feature, "check_status", userID, err)
		return nil, fmt.Errorf("%w: %v", pipeline.ErrUpstream, err)
	}

	next := nextStatus(dub.Status, st.Status)
	switch next {
	case StatusDubbed:
		audio, err := s.provider.DownloadDubbedAudio(ctx, dub.ProviderJobID, dub.TargetLang)
		if err != nil {
			reporting.Capture(feature, "download", userID, err)
			return nil, fmt.Errorf("%w: %v", pipeline.ErrUpstream, err)
		}
		key := storage.NewKey(feature, "mp3")
		if err := s.store.Upload(ctx, key, audio, "audio/mpeg"); err != nil {
			reporting.Capture(feature, "store", userID, err)
			return nil, err
		}
		updates := map[string]interface{}{"status": StatusDubbed, "storage_key": key}
		if err := s.db.WithContext(ctx).Model(dub).Updates(updates).Error; err != nil {
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				slog.Error("failed to delete orphaned dub blob", "feature", feature, "key", key, "error", delErr)
			}
			return nil, fmt.Errorf("%w: %v", pipeline.ErrPersistence, err)
		}
		dub.Status = StatusDubbed
		dub.StorageKey = key
		s.events.Emit("dub_completed", userID, map[string]interface{}{
			"target_lang": dub.TargetLang,
		})
	case StatusFailed:
		updates := map[string]interface{}{"status": StatusFailed, "error_message": st.Error}
		if err := s.db.WithContext(ctx).Model(dub).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", pipeline.ErrPersistence, err)
		}
		dub.Status = StatusFailed
		dub.ErrorMessage = st.Error
	default:
		if next != dub.Status {
			if err := s.db.WithContext(ctx).Model(dub).Update("status", next).Error; err != nil {
				return nil, fmt.Errorf("%w: %v", pipeline.ErrPersistence, err)
			}
			dub.Status = next
		}
	}

	return s.statusResponse(ctx, dub)
}

func (s *Service) statusResponse(ctx context.Context, dub *Dub) (*StatusResponse, error) {
	resp := &StatusResponse{ID: dub.ID, Status: dub.Status, Error: dub.ErrorMessage}
	if dub.Status == StatusDubbed && dub.StorageKey != "" {
		url, err := s.store.PresignGet(ctx, dub.StorageKey)
		if err != nil {
			slog.Error("failed to presign dub audio", "feature", feature, "key", dub.StorageKey, "error", err)
		} else {
			resp.AudioURL = url
		}
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id uuid.UUID) (*Dub, error) {
	var dub Dub
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&dub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: dub %s", pipeline.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &dub, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Dub, int64, error) {
	var items []Dub
	var total int64

	offset := (page - 1) * pageSize

	if err := s.db.WithContext(ctx).Model(&Dub{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
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
	dub, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if dub.Status != StatusDubbed || dub.StorageKey == "" {
		return "", fmt.Errorf("%w: dub %s has no audio yet", pipeline.ErrNotFound, id)
	}
	return s.store.PresignGet(ctx, dub.StorageKey)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	dub, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if dub.StorageKey != "" {
		if err := s.store.Delete(ctx, dub.StorageKey); err != nil {
			slog.Error("failed to delete dub blob", "feature", feature, "user_id", userID.String(), "key", dub.StorageKey, "error", err)
		}
	}

	return s.db.WithContext(ctx).Delete(dub).Error
}
