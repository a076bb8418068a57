package transcribe

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
	"github.com/audiomint/audiomint-backend/internal/provider/elevenlabs"
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

type fakeTranscriber struct {
	calls int
}

func (p *fakeTranscriber) Transcribe(_ context.Context, _ string, _ []byte) (*elevenlabs.Transcription, error) {
	p.calls++
	return &elevenlabs.Transcription{Text: "hello there", LanguageCode: "en", Duration: 3.5}, nil
}

func setup(t *testing.T) (*Service, *gorm.DB, *memStore, *fakeTranscriber, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UsagePeriod{}, &Transcript{}))

	store := newMemStore()
	provider := &fakeTranscriber{}
	gate := quota.NewGate(db, &memEmitter{})
	service := NewService(db, store, gate, &memEmitter{}, provider, 10*1024*1024)

	user := &models.User{Subject: "sub-stt", PlanTier: plans.TierFree}
	require.NoError(t, db.Create(user).Error)

	return service, db, store, provider, user
}

func TestTranscribeKeepsSourceAudio(t *testing.T) {
	service, db, store, provider, user := setup(t)

	resp, err := service.Transcribe(context.Background(), user, TranscribeInput{
		FileName: "meeting.mp3", File: []byte("audio-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "hello there", resp.Text)
	assert.Equal(t, "en", resp.LanguageCode)
	assert.NotEmpty(t, resp.AudioURL)
	assert.Len(t, store.blobs, 1)

	var period models.UsagePeriod
	require.NoError(t, db.First(&period, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(1), period.TranscriptionsUsed)
}

func TestTranscribeRejectsBadUpload(t *testing.T) {
	service, _, store, provider, user := setup(t)

	_, err := service.Transcribe(context.Background(), user, TranscribeInput{
		FileName: "doc.pdf", File: []byte("x"),
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)

	_, err = service.Transcribe(context.Background(), user, TranscribeInput{
		FileName: "empty.mp3", File: nil,
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)

	assert.Zero(t, provider.calls)
	assert.Empty(t, store.blobs)
}

func TestTranscriptVisibleToOwnerOnly(t *testing.T) {
	service, db, _, _, user := setup(t)

	resp, err := service.Transcribe(context.Background(), user, TranscribeInput{
		FileName: "note.m4a", File: []byte("audio"),
	})
	require.NoError(t, err)

	_, err = service.GetByID(context.Background(), uuid.New(), resp.ID)
	require.ErrorIs(t, err, pipeline.ErrNotFound)

	var rec Transcript
	require.NoError(t, db.First(&rec, "id = ?", resp.ID).Error)
	assert.Equal(t, user.ID, rec.UserID)
}
