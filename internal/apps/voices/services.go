package voices

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

const feature = "voices"

// The provider refuses voice design prompts with a shorter sample.
const minSampleChars = 100

type Provider interface {
	DesignVoice(ctx context.Context, name, description, sampleText string) (*elevenlabs.DesignedVoice, error)
	DeleteVoice(ctx context.Context, voiceID string) error
}

type Service struct {
	db       *gorm.DB
	store    storage.BlobStore
	events   analytics.Emitter
	provider Provider
}

func NewService(db *gorm.DB, store storage.BlobStore, events analytics.Emitter, provider Provider) *Service {
	return &Service{db: db, store: store, events: events, provider: provider}
}

// List returns the shared catalog plus the user's own custom voices, each
// carrying that user's saved/favorite flags.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]VoiceResponse, error) {
	var voices []Voice
	err := s.db.WithContext(ctx).
		Where("owner_id IS NULL OR owner_id = ?", userID).
		Order("category, name").Find(&voices).Error
	if err != nil {
		return nil, err
	}

	var flags []UserVoice
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&flags).Error; err != nil {
		return nil, err
	}
	flagByVoice := make(map[uuid.UUID]UserVoice, len(flags))
	for _, f := range flags {
		flagByVoice[f.VoiceID] = f
	}

	out := make([]VoiceResponse, 0, len(voices))
	for _, v := range voices {
		resp := VoiceResponse{
			ID:          v.ID,
			ExternalID:  v.ExternalID,
			Name:        v.Name,
			Description: v.Description,
			Category:    v.Category,
			Labels:      v.Labels,
			Owned:       v.OwnerID != nil && *v.OwnerID == userID,
			CreatedAt:   v.CreatedAt,
		}
		if f, ok := flagByVoice[v.ID]; ok {
			resp.Saved = f.Saved
			resp.Favorite = f.Favorite
		}
		if v.PreviewKey != "" {
			if url, err := s.store.PresignGet(ctx, v.PreviewKey); err == nil {
				resp.PreviewURL = url
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

// ToggleSaved flips the saved flag, creating the per-user row on first use.
func (s *Service) ToggleSaved(ctx context.Context, userID, voiceID uuid.UUID) (*ToggleResponse, error) {
	return s.toggle(ctx, userID, voiceID, func(uv *UserVoice) { uv.Saved = !uv.Saved })
}

// ToggleFavorite flips the favorite flag.
func (s *Service) ToggleFavorite(ctx context.Context, userID, voiceID uuid.UUID) (*ToggleResponse, error) {
	return s.toggle(ctx, userID, voiceID, func(uv *UserVoice) { uv.Favorite = !uv.Favorite })
}

func (s *Service) toggle(ctx context.Context, userID, voiceID uuid.UUID, flip func(*UserVoice)) (*ToggleResponse, error) {
	if _, err := s.getVisible(ctx, userID, voiceID); err != nil {
		return nil, err
	}

	var uv UserVoice
	err := s.db.WithContext(ctx).Where("user_id = ? AND voice_id = ?", userID, voiceID).First(&uv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		uv = UserVoice{UserID: userID, VoiceID: voiceID}
		flip(&uv)
		if err := s.db.WithContext(ctx).Create(&uv).Error; err != nil {
			return nil, err
		}
		return &ToggleResponse{ID: voiceID, Saved: uv.Saved, Favorite: uv.Favorite}, nil
	}
	if err != nil {
		return nil, err
	}

	flip(&uv)
	if err := s.db.WithContext(ctx).Model(&uv).Updates(map[string]interface{}{"saved": uv.Saved, "favorite": uv.Favorite}).Error; err != nil {
		return nil, err
	}
	return &ToggleResponse{ID: voiceID, Saved: uv.Saved, Favorite: uv.Favorite}, nil
}

// Design creates a custom voice from a text description. Custom voices are
// slot-limited per plan rather than metered per period, so the check is a
// straight count against the tier's allowance.
func (s *Service) Design(ctx context.Context, user *models.User, req DesignRequest) (*VoiceResponse, error) {
	name := strings.TrimSpace(req.Name)
	sample := strings.TrimSpace(req.SampleText)

	if name == "" {
		return nil, pipeline.Invalidf("name is required")
	}
	if len([]rune(sample)) < minSampleChars {
		return nil, pipeline.Invalidf("sample_text must be at least %d characters", minSampleChars)
	}

	limit := plans.ForTier(user.PlanTier).CustomVoices
	var owned int64
	if err := s.db.WithContext(ctx).Model(&Voice{}).
		Where("owner_id = ? AND category = ?", user.ID, CategoryCustom).
		Count(&owned).Error; err != nil {
		return nil, err
	}
	if owned >= limit {
		s.events.Emit("limit_hit", user.ID, map[string]interface{}{
			"metric":    "custom_voices",
			"attempted": owned + 1,
			"limit":     limit,
			"plan_tier": user.PlanTier,
		})
		return nil, fmt.Errorf("%w: custom voice slots (%d) exhausted", pipeline.ErrQuotaExceeded, limit)
	}

	designed, err := s.provider.DesignVoice(ctx, name, req.Description, sample)
	if err != nil {
		reporting.Capture(feature, "design", user.ID, err)
		if errors.Is(err, pipeline.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", pipeline.ErrUpstream, err)
	}

	var previewKey string
	if len(designed.PreviewAudio) > 0 {
		previewKey = storage.NewKey(feature+"/preview", "mp3")
		if err := s.store.Upload(ctx, previewKey, designed.PreviewAudio, "audio/mpeg"); err != nil {
			slog.Error("failed to store voice preview", "feature", feature, "user_id", user.ID.String(), "error", err)
			previewKey = ""
		}
	}

	voice := &Voice{
		ExternalID:  designed.VoiceID,
		Name:        name,
		Description: req.Description,
		Category:    CategoryCustom,
		OwnerID:     &user.ID,
		PreviewKey:  previewKey,
	}
	if err := s.db.WithContext(ctx).Create(voice).Error; err != nil {
		if previewKey != "" {
			if delErr := s.store.Delete(ctx, previewKey); delErr != nil {
				slog.Error("failed to delete orphaned voice preview", "feature", feature, "key", previewKey, "error", delErr)
			}
		}
		if rmErr := s.provider.DeleteVoice(ctx, designed.VoiceID); rmErr != nil {
			slog.Error("failed to remove provider voice after persist failure", "feature", feature, "voice_id", designed.VoiceID, "error", rmErr)
		}
		reporting.Capture(feature, "design", user.ID, err)
		return nil, fmt.Errorf("%w: %v", pipeline.ErrPersistence, err)
	}

	s.events.Emit("voice_designed", user.ID, map[string]interface{}{
		"voice_id": voice.ExternalID,
	})

	resp := &VoiceResponse{
		ID:          voice.ID,
		ExternalID:  voice.ExternalID,
		Name:        voice.Name,
		Description: voice.Description,
		Category:    voice.Category,
		Owned:       true,
		CreatedAt:   voice.CreatedAt,
	}
	if previewKey != "" {
		if url, err := s.store.PresignGet(ctx, previewKey); err == nil {
			resp.PreviewURL = url
		}
	}
	return resp, nil
}

// DeleteCustom removes a user-owned voice here and at the provider.
func (s *Service) DeleteCustom(ctx context.Context, userID, voiceID uuid.UUID) error {
	var voice Voice
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND category = ?", voiceID, userID, CategoryCustom).
		First(&voice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: voice %s", pipeline.ErrNotFound, voiceID)
	}
	if err != nil {
		return err
	}

	if err := s.provider.DeleteVoice(ctx, voice.ExternalID); err != nil {
		slog.Error("failed to delete provider voice", "feature", feature, "voice_id", voice.ExternalID, "error", err)
	}
	if voice.PreviewKey != "" {
		if err := s.store.Delete(ctx, voice.PreviewKey); err != nil {
			slog.Error("failed to delete voice preview blob", "feature", feature, "key", voice.PreviewKey, "error", err)
		}
	}

	if err := s.db.WithContext(ctx).Where("voice_id = ?", voice.ID).Delete(&UserVoice{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&voice).Error
}

// Seed runs the catalog upsert on demand.
func (s *Service) Seed(ctx context.Context) error {
	return SeedCatalog(s.db.WithContext(ctx))
}

// getVisible loads a voice the user may reference: any premade voice or one
// of their own custom voices.
func (s *Service) getVisible(ctx context.Context, userID, voiceID uuid.UUID) (*Voice, error) {
	var voice Voice
	err := s.db.WithContext(ctx).
		Where("id = ? AND (owner_id IS NULL OR owner_id = ?)", voiceID, userID).
		First(&voice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: voice %s", pipeline.ErrNotFound, voiceID)
	}
	if err != nil {
		return nil, err
	}
	return &voice, nil
}
