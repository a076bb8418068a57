package voicechanger

import (
	"context"
	"fmt"
	"strings"
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

type fakeChanger struct {
	convertCalls int
	isolateCalls int
}

func (p *fakeChanger) SpeechToSpeech(_ context.Context, _, _ string, _ []byte) ([]byte, error) {
	p.convertCalls++
	return []byte("converted"), nil
}

func (p *fakeChanger) IsolateVoice(_ context.Context, _ string, _ []byte) ([]byte, error) {
	p.isolateCalls++
	return []byte("isolated"), nil
}

func setup(t *testing.T) (*Service, *gorm.DB, *memStore, *fakeChanger, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UsagePeriod{}, &Conversion{}))

	store := newMemStore()
	provider := &fakeChanger{}
	gate := quota.NewGate(db, &memEmitter{})
	service := NewService(db, store, gate, &memEmitter{}, provider, 10*1024*1024)

	user := &models.User{Subject: "sub-vc", PlanTier: plans.TierFree}
	require.NoError(t, db.Create(user).Error)

	return service, db, store, provider, user
}

func TestConvertStoresBothBlobs(t *testing.T) {
	service, db, store, provider, user := setup(t)

	resp, err := service.Convert(context.Background(), user, ProcessInput{
		VoiceID: "voice-1", FileName: "clip.wav", File: []byte("original-audio"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.convertCalls)
	assert.Equal(t, KindConversion, resp.Kind)
	assert.Len(t, store.blobs, 2, "original and converted audio both stored")

	var rec Conversion
	require.NoError(t, db.First(&rec, "user_id = ?", user.ID).Error)
	assert.NotEmpty(t, rec.OriginalKey)
	assert.NotEmpty(t, rec.ConvertedKey)
	assert.NotEqual(t, rec.OriginalKey, rec.ConvertedKey)
	assert.True(t, strings.HasSuffix(rec.OriginalKey, ".wav"), "original keeps the upload extension")

	var period models.UsagePeriod
	require.NoError(t, db.First(&period, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(1), period.VoiceConversionsUsed)
}

func TestConvertRequiresVoiceID(t *testing.T) {
	service, _, store, provider, user := setup(t)

	_, err := service.Convert(context.Background(), user, ProcessInput{
		FileName: "clip.wav", File: []byte("x"),
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)
	assert.Zero(t, provider.convertCalls)
	assert.Empty(t, store.blobs)
}

func TestIsolateNeedsNoVoice(t *testing.T) {
	service, db, _, provider, user := setup(t)

	resp, err := service.Isolate(context.Background(), user, ProcessInput{
		FileName: "noisy.mp3", File: []byte("noisy-audio"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.isolateCalls)
	assert.Equal(t, KindIsolation, resp.Kind)

	var period models.UsagePeriod
	require.NoError(t, db.First(&period, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(1), period.VoiceConversionsUsed, "isolation shares the conversion quota")
}

func TestOversizedUploadRejectedLocally(t *testing.T) {
	service, _, store, provider, user := setup(t)

	big := make([]byte, 11*1024*1024)
	_, err := service.Isolate(context.Background(), user, ProcessInput{
		FileName: "big.wav", File: big,
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)
	assert.Zero(t, provider.isolateCalls, "oversized payload must never reach the provider")
	assert.Empty(t, store.blobs)
}

func TestUnsupportedExtensionRejected(t *testing.T) {
	service, _, _, provider, user := setup(t)

	_, err := service.Isolate(context.Background(), user, ProcessInput{
		FileName: "malware.exe", File: []byte("x"),
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)
	assert.Zero(t, provider.isolateCalls)
}

func TestDeleteRemovesBothBlobs(t *testing.T) {
	service, db, store, _, user := setup(t)

	resp, err := service.Isolate(context.Background(), user, ProcessInput{
		FileName: "noisy.mp3", File: []byte("noisy-audio"),
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), user.ID, resp.ID))
	assert.Empty(t, store.blobs)

	var count int64
	require.NoError(t, db.Model(&Conversion{}).Count(&count).Error)
	assert.Zero(t, count)
}
