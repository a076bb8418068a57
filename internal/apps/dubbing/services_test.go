package dubbing

import (
	"context"
	"errors"
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

type fakeDubber struct {
	createCalls int
	status      string
	statusErr   string
	downloadErr error
	audio       []byte
}

func (p *fakeDubber) CreateDub(_ context.Context, _ string, _ []byte, _, _, _ string) (*elevenlabs.DubJob, error) {
	p.createCalls++
	return &elevenlabs.DubJob{DubbingID: "job-1", ExpectedDuration: 42}, nil
}

func (p *fakeDubber) GetDubStatus(_ context.Context, _ string) (*elevenlabs.DubStatus, error) {
	return &elevenlabs.DubStatus{Status: p.status, Error: p.statusErr}, nil
}

func (p *fakeDubber) DownloadDubbedAudio(_ context.Context, _, _ string) ([]byte, error) {
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	return p.audio, nil
}

func setup(t *testing.T) (*Service, *gorm.DB, *memStore, *fakeDubber, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UsagePeriod{}, &Dub{}))

	store := newMemStore()
	events := &memEmitter{}
	provider := &fakeDubber{status: "dubbing", audio: []byte("dubbed-mp3")}
	gate := quota.NewGate(db, events)
	service := NewService(db, store, gate, events, provider, 10*1024*1024)

	user := &models.User{Subject: "sub-dub", PlanTier: plans.TierFree}
	require.NoError(t, db.Create(user).Error)

	return service, db, store, provider, user
}

func create(t *testing.T, service *Service, user *models.User) *CreateResponse {
	t.Helper()
	resp, err := service.Create(context.Background(), user, CreateInput{
		Name: "demo", TargetLang: "ES", DurationSeconds: 60,
		FileName: "clip.mp4", File: []byte("video-bytes"),
	})
	require.NoError(t, err)
	return resp
}

func TestNextStatusTerminalLatch(t *testing.T) {
	// Terminal states never move, whatever the provider claims.
	assert.Equal(t, StatusDubbed, nextStatus(StatusDubbed, "dubbing"))
	assert.Equal(t, StatusDubbed, nextStatus(StatusDubbed, "failed"))
	assert.Equal(t, StatusFailed, nextStatus(StatusFailed, "dubbed"))

	assert.Equal(t, StatusDubbing, nextStatus(StatusPending, "dubbing"))
	assert.Equal(t, StatusDubbed, nextStatus(StatusDubbing, "dubbed"))
	assert.Equal(t, StatusFailed, nextStatus(StatusDubbing, "failed"))
	assert.Equal(t, StatusPending, nextStatus(StatusPending, "something_new"))
}

func TestCreateChargesDeclaredSeconds(t *testing.T) {
	service, db, _, provider, user := setup(t)

	resp := create(t, service, user)
	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, "es", resp.TargetLang)
	assert.Equal(t, 1, provider.createCalls)

	var period models.UsagePeriod
	require.NoError(t, db.First(&period, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(60), period.DubbingSecondsUsed)
}

func TestCreateRejectsMissingTargetLang(t *testing.T) {
	service, _, _, provider, user := setup(t)

	_, err := service.Create(context.Background(), user, CreateInput{
		DurationSeconds: 60, FileName: "clip.mp4", File: []byte("x"),
	})
	require.ErrorIs(t, err, pipeline.ErrInvalidInput)
	assert.Zero(t, provider.createCalls)
}

func TestCreateRejectsOverQuota(t *testing.T) {
	service, db, _, provider, user := setup(t)

	// Free tier allows 150 dubbing seconds.
	_, err := service.Create(context.Background(), user, CreateInput{
		TargetLang: "es", DurationSeconds: 200,
		FileName: "clip.mp4", File: []byte("x"),
	})
	require.ErrorIs(t, err, pipeline.ErrQuotaExceeded)
	assert.Zero(t, provider.createCalls)

	var count int64
	require.NoError(t, db.Model(&Dub{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckStatusStoresAudioWhenDubbed(t *testing.T) {
	service, db, store, provider, user := setup(t)
	resp := create(t, service, user)

	provider.status = "dubbed"
	st, err := service.CheckStatus(context.Background(), user.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDubbed, st.Status)
	assert.NotEmpty(t, st.AudioURL)
	assert.Len(t, store.blobs, 1)

	var dub Dub
	require.NoError(t, db.First(&dub, "id = ?", resp.ID).Error)
	assert.Equal(t, StatusDubbed, dub.Status)
	assert.NotEmpty(t, dub.StorageKey)
}

func TestCheckStatusDownloadFailureRetriesLater(t *testing.T) {
	service, db, _, provider, user := setup(t)
	resp := create(t, service, user)

	provider.status = "dubbed"
	provider.downloadErr = errors.New("not ready")

	_, err := service.CheckStatus(context.Background(), user.ID, resp.ID)
	require.ErrorIs(t, err, pipeline.ErrUpstream)

	// Still non-terminal so the next poll tries the download again.
	var dub Dub
	require.NoError(t, db.First(&dub, "id = ?", resp.ID).Error)
	assert.NotEqual(t, StatusDubbed, dub.Status)

	provider.downloadErr = nil
	st, err := service.CheckStatus(context.Background(), user.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDubbed, st.Status)
}

func TestCheckStatusFailureIsTerminal(t *testing.T) {
	service, _, _, provider, user := setup(t)
	resp := create(t, service, user)

	provider.status = "failed"
	provider.statusErr = "unsupported language"

	st, err := service.CheckStatus(context.Background(), user.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "unsupported language", st.Error)

	// A later optimistic provider answer cannot resurrect the job.
	provider.status = "dubbed"
	st, err = service.CheckStatus(context.Background(), user.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, st.Status)
}

func TestAudioURLBeforeCompletion(t *testing.T) {
	service, _, _, _, user := setup(t)
	resp := create(t, service, user)

	_, err := service.AudioURL(context.Background(), user.ID, resp.ID)
	require.ErrorIs(t, err, pipeline.ErrNotFound)
}
