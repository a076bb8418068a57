package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/plans"
)

type fakeStore struct {
	uploads   map[string][]byte
	deletes   []string
	uploadErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (s *fakeStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads[key] = data
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.uploads, key)
	return nil
}

func (s *fakeStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

type fakeGate struct {
	checkErr error
	debitErr error
	checks   int
	debits   int
}

func (g *fakeGate) Check(_ context.Context, _ *models.User, _ plans.Metric, _ int64) error {
	g.checks++
	return g.checkErr
}

func (g *fakeGate) Debit(_ context.Context, _ *models.User, _ plans.Metric, _ int64) error {
	g.debits++
	return g.debitErr
}

func testOp(calls *int, persistErr error) Op[[]byte, string] {
	return Op[[]byte, string]{
		Feature: "test",
		User:    &models.User{},
		Metric:  plans.MetricCharacters,
		Cost:    10,
		Call: func(_ context.Context) ([]byte, error) {
			*calls++
			return []byte("audio"), nil
		},
		Blobs: func(out []byte) []Blob {
			return []Blob{{Key: "test/a.mp3", Data: out, ContentType: "audio/mpeg"}}
		},
		Persist: func(_ context.Context, _ []byte, keys []string) (string, error) {
			if persistErr != nil {
				return "", persistErr
			}
			return keys[0], nil
		},
	}
}

func TestRunHappyPath(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{}
	calls := 0

	rec, err := Run(context.Background(), store, gate, testOp(&calls, nil))
	require.NoError(t, err)
	assert.Equal(t, "test/a.mp3", rec)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, gate.checks)
	assert.Equal(t, 1, gate.debits)
	assert.Contains(t, store.uploads, "test/a.mp3")
}

func TestRunInvalidInputSkipsEverything(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{}
	calls := 0

	op := testOp(&calls, nil)
	op.Validate = func() error { return Invalidf("text too long") }

	_, err := Run(context.Background(), store, gate, op)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, calls, "provider must not be called on invalid input")
	assert.Zero(t, gate.checks)
	assert.Empty(t, store.uploads)
}

func TestRunQuotaRejectBeforeProviderCall(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{checkErr: fmt.Errorf("%w: characters", ErrQuotaExceeded)}
	calls := 0

	_, err := Run(context.Background(), store, gate, testOp(&calls, nil))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, calls, "provider must not be called when over limit")
	assert.Empty(t, store.uploads)
	assert.Zero(t, gate.debits)
}

func TestRunProviderFailureWrapped(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{}

	op := testOp(new(int), nil)
	op.Call = func(_ context.Context) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	_, err := Run(context.Background(), store, gate, op)
	require.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, store.uploads)
	assert.Zero(t, gate.debits)
}

func TestRunPersistFailureDeletesBlob(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{}
	calls := 0

	_, err := Run(context.Background(), store, gate, testOp(&calls, errors.New("insert failed")))
	require.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, store.uploads, "blob must be removed when the metadata write fails")
	assert.Equal(t, []string{"test/a.mp3"}, store.deletes)
	assert.Zero(t, gate.debits)
}

func TestRunDebitFailureCompensates(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{debitErr: fmt.Errorf("%w: characters", ErrQuotaExceeded)}
	calls := 0
	removed := false

	op := testOp(&calls, nil)
	op.Remove = func(_ context.Context, _ string) error {
		removed = true
		return nil
	}

	_, err := Run(context.Background(), store, gate, op)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.True(t, removed, "metadata row must be compensated when the debit loses")
	assert.Empty(t, store.uploads)
}

func TestRunCleanupFailureJoinsBothErrors(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("bucket unreachable")
	gate := &fakeGate{}
	calls := 0

	_, err := Run(context.Background(), store, gate, testOp(&calls, errors.New("insert failed")))
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "bucket unreachable", "rollback failure must not mask the original error")
	assert.Contains(t, err.Error(), "insert failed")
}

func TestRunMultipleBlobsAllUploaded(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{}

	op := Op[[]byte, []string]{
		Feature: "test",
		User:    &models.User{},
		Metric:  plans.MetricVoiceConversions,
		Cost:    1,
		Call: func(_ context.Context) ([]byte, error) {
			return []byte("converted"), nil
		},
		Blobs: func(out []byte) []Blob {
			return []Blob{
				{Key: "test/original.mp3", Data: []byte("original"), ContentType: "audio/mpeg"},
				{Key: "test/converted.mp3", Data: out, ContentType: "audio/mpeg"},
			}
		},
		Persist: func(_ context.Context, _ []byte, keys []string) ([]string, error) {
			return keys, nil
		},
	}

	keys, err := Run(context.Background(), store, gate, op)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, store.uploads, "test/original.mp3")
	assert.Contains(t, store.uploads, "test/converted.mp3")
}

func TestRunNilBlobsAllowed(t *testing.T) {
	store := newFakeStore()
	gate := &fakeGate{}

	op := Op[string, string]{
		Feature: "test",
		User:    &models.User{},
		Metric:  plans.MetricDubbingSeconds,
		Cost:    30,
		Call: func(_ context.Context) (string, error) {
			return "job-1", nil
		},
		Persist: func(_ context.Context, out string, keys []string) (string, error) {
			require.Empty(t, keys)
			return out, nil
		},
	}

	rec, err := Run(context.Background(), store, gate, op)
	require.NoError(t, err)
	assert.Equal(t, "job-1", rec)
	assert.Empty(t, store.uploads)
}

func TestValidateUpload(t *testing.T) {
	allowed := []string{"mp3", "wav"}
	maxBytes := int64(10 * 1024 * 1024)

	require.NoError(t, ValidateUpload("clip.mp3", 1024, maxBytes, allowed))
	require.NoError(t, ValidateUpload("CLIP.WAV", 1024, maxBytes, allowed))

	err := ValidateUpload("clip.mp3", 50*1024*1024, maxBytes, allowed)
	require.ErrorIs(t, err, ErrInvalidInput, "oversized payload must be rejected locally")

	require.ErrorIs(t, ValidateUpload("clip.exe", 1024, maxBytes, allowed), ErrInvalidInput)
	require.ErrorIs(t, ValidateUpload("clip.mp3", 0, maxBytes, allowed), ErrInvalidInput)
	require.ErrorIs(t, ValidateUpload("noext", 1024, maxBytes, allowed), ErrInvalidInput)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Invalidf("bad"), 400},
		{fmt.Errorf("%w: gone", ErrNotFound), 404},
		{fmt.Errorf("%w: characters", ErrQuotaExceeded), 429},
		{fmt.Errorf("%w: boom", ErrUpstream), 502},
		{&UpstreamError{StatusCode: 500, Body: "oops"}, 502},
		{errors.New("anything else"), 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err))
	}
}

func TestUserMessageHidesInternals(t *testing.T) {
	msg := UserMessage(&UpstreamError{StatusCode: 500, Body: `{"detail":"internal provider trace"}`})
	assert.NotContains(t, msg, "provider trace")

	msg = UserMessage(Invalidf("prompt is required"))
	assert.Contains(t, msg, "prompt is required")
}
