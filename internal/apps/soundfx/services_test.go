package soundfx

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
	"github.com/audiomint/audiomint-backend/internal/plans"
	"github.com/audiomint/audiomint-backend/internal/quota"
)

type memStore struct {
	blobs map[string][]byte
}

func newMemStore() *memStore { return &memStore{blobs: map[string][]byte{}} }

func (s *memStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.blobs[key] = data
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

func (s *memStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

type memEmitter struct{ events []string }

func (e *memEmitter) Emit(event string, _ uuid.UUID, _ map[string]interface{}) {
	e.events = append(e.events, event)
}

type fakeFXProvider struct {
	calls int
}

func (p *fakeFXProvider) GenerateSoundEffect(_ context.Context, _ string, _ float64) ([]byte, error) {
	p.calls++
	return []byte("fx-mp3"), nil
}

func setup(t *testing.T) (*Service, *gorm.DB, *fakeFXProvider, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UsagePeriod{}, &SoundEffect{}))

	provider := &fakeFXProvider{}
	gate := quota.NewGate(db, &memEmitter{})
	service := NewService(db, newMemStore(), gate, &memEmitter{}, provider)

	user := &models.User{Subject: "sub-fx", PlanTier: plans.TierFree}
	require.NoError(t, db.Create(user).Error)

	return service, db, provider, user
}

func TestGenerateCountsOneEffect(t *testing.T) {
	service, db, provider, user := setup(t)

	resp, err := service.Generate(context.Background(), user, GenerateRequest{
		Prompt: "rain on a tin roof", DurationSeconds: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "rain on a tin roof", resp.Prompt)

	var period models.UsagePeriod
	require.NoError(t, db.First(&period, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(1), period.SoundEffectsUsed, "cost is one generation regardless of duration")
}

func TestGenerateDurationBounds(t *testing.T) {
	service, _, provider, user := setup(t)

	for _, d := range []float64{0.2, 22.5, -1} {
		_, err := service.Generate(context.Background(), user, GenerateRequest{
			Prompt: "thunder", DurationSeconds: d,
		})
		require.ErrorIs(t, err, pipeline.ErrInvalidInput, "duration %v must be rejected", d)
	}
	assert.Zero(t, provider.calls)

	// Zero means provider-chosen duration; both bounds are inclusive.
	for _, d := range []float64{0, 0.5, 22} {
		_, err := service.Generate(context.Background(), user, GenerateRequest{
			Prompt: "thunder", DurationSeconds: d,
		})
		require.NoError(t, err, "duration %v should pass", d)
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	service, _, provider, user := setup(t)

	_, err := service.Generate(context.Background(), user, GenerateRequest{Prompt: "  "})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)
	assert.Zero(t, provider.calls)
}
