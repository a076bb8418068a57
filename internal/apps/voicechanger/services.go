package voicechanger

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
	"github.com/audiomint/audiomint-backend/internal/reporting"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

const feature = "voicechanger"

var allowedAudioExts = []string{"mp3", "wav", "m4a", "ogg", "webm", "flac"}

type Provider interface {
	SpeechToSpeech(ctx context.Context, voiceID, filename string, audio []byte) ([]byte, error)
	IsolateVoice(ctx context.Context, filename string, audio []byte) ([]byte, error)
}

type ProcessInput struct {
	VoiceID  string
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

// Convert re-voices the uploaded clip with the given voice.
func (s *Service) Convert(ctx context.Context, user *models.User, in ProcessInput) (*ConversionResponse, error) {
	voiceID := strings.TrimSpace(in.VoiceID)

	return s.process(ctx, user, KindConversion, voiceID, in, func(ctx context.Context) ([]byte, error) {
		return s.provider.SpeechToSpeech(ctx, voiceID, in.FileName, in.File)
	}, func() error {
		if voiceID == "" {
			return pipeline.Invalidf("voice_id is required")
		}
		return nil
	})
}

// Isolate strips background noise, keeping speech only.
func (s *Service) Isolate(ctx context.Context, user *models.User, in ProcessInput) (*ConversionResponse, error) {
	return s.process(ctx, user, KindIsolation, "", in, func(ctx context.Context) ([]byte, error) {
		return s.provider.IsolateVoice(ctx, in.FileName, in.File)
	}, nil)
}

// process runs the shared two-blob flow: the original upload and the
// processed result are stored side by side in one pipeline pass.
func (s *Service) process(ctx context.Context, user *models.User, kind, voiceID string, in ProcessInput, call func(ctx context.Context) ([]byte, error), extra func() error) (*ConversionResponse, error) {
	rec, err := pipeline.Run(ctx, s.store, s.gate, pipeline.Op[[]byte, *Conversion]{
		Feature: feature,
		User:    user,
		Metric:  plans.MetricVoiceConversions,
		Cost:    1,
		Validate: func() error {
			if err := pipeline.ValidateUpload(in.FileName, int64(len(in.File)), s.maxUploadBytes, allowedAudioExts); err != nil {
				return err
			}
			if extra != nil {
				return extra()
			}
			return nil
		},
		Call: call,
		Blobs: func(converted []byte) []pipeline.Blob {
			ext := strings.ToLower(strings.TrimPrefix(path.Ext(in.FileName), "."))
			if ext == "" {
				ext = "mp3"
			}
			return []pipeline.Blob{
				{Key: storage.NewKey(feature+"/original", ext), Data: in.File, ContentType: "application/octet-stream"},
				{Key: storage.NewKey(feature+"/converted", "mp3"), Data: converted, ContentType: "audio/mpeg"},
			}
		},
		Persist: func(ctx context.Context, _ []byte, keys []string) (*Conversion, error) {
			conv := &Conversion{
				UserID:       user.ID,
				Kind:         kind,
				VoiceID:      voiceID,
				FileName:     in.FileName,
				OriginalKey:  keys[0],
				ConvertedKey: keys[1],
			}
			if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
				return nil, err
			}
			return conv, nil
		},
		Remove: func(ctx context.Context, conv *Conversion) error {
			return s.db.WithContext(ctx).Unscoped().Delete(conv).Error
		},
	})
	if err != nil {
		reporting.Capture(feature, kind, user.ID, err)
		return nil, err
	}

	audioURL, err := s.store.PresignGet(ctx, rec.ConvertedKey)
	if err != nil {
		slog.Error("failed to presign converted audio", "feature", feature, "user_id", user.ID.String(), "error", err)
	}

	s.events.Emit("voice_"+kind+"_completed", user.ID, map[string]interface{}{
		"kind": kind,
	})

	return &ConversionResponse{
		ID:        rec.ID,
		Kind:      rec.Kind,
		VoiceID:   rec.VoiceID,
		FileName:  rec.FileName,
		AudioURL:  audioURL,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id uuid.UUID) (*Conversion, error) {
	var conv Conversion
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: conversion %s", pipeline.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, kind string, page, pageSize int) ([]Conversion, int64, error) {
	var items []Conversion
	var total int64

	offset := (page - 1) * pageSize

	q := s.db.WithContext(ctx).Model(&Conversion{}).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// URLs presigns both sides of a conversion.
func (s *Service) URLs(ctx context.Context, userID, id uuid.UUID) (*ConversionResponse, error) {
	conv, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	audioURL, err := s.store.PresignGet(ctx, conv.ConvertedKey)
	if err != nil {
		return nil, err
	}
	originalURL, err := s.store.PresignGet(ctx, conv.OriginalKey)
	if err != nil {
		return nil, err
	}

	return &ConversionResponse{
		ID:          conv.ID,
		Kind:        conv.Kind,
		VoiceID:     conv.VoiceID,
		FileName:    conv.FileName,
		AudioURL:    audioURL,
		OriginalURL: originalURL,
		CreatedAt:   conv.CreatedAt,
	}, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	conv, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	for _, key := range []string{conv.OriginalKey, conv.ConvertedKey} {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.Error("failed to delete conversion blob", "feature", feature, "user_id", userID.String(), "key", key, "error", err)
		}
	}

	return s.db.WithContext(ctx).Delete(conv).Error
}
