package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/plans"
	"github.com/audiomint/audiomint-backend/internal/storage"
)

// QuotaGate is the slice of the quota package the pipeline needs.
type QuotaGate interface {
	Check(ctx context.Context, user *models.User, metric plans.Metric, cost int64) error
	Debit(ctx context.Context, user *models.User, metric plans.Metric, cost int64) error
}

// Blob is one artifact to upload before the metadata write.
type Blob struct {
	Key         string
	Data        []byte
	ContentType string
}

// Op describes one generation operation. P is the provider's result, R the
// persisted record. Every audio feature runs the same sequence:
// validate, quota gate, one provider call, blob upload(s), metadata write,
// atomic usage debit — with best-effort compensation when a later step fails.
type Op[P any, R any] struct {
	Feature string
	User    *models.User
	Metric  plans.Metric
	Cost    int64

	// Validate fails fast with ErrInvalidInput kinds before anything runs.
	Validate func() error

	// Call issues exactly one request to the provider.
	Call func(ctx context.Context) (P, error)

	// Blobs lists the artifacts to upload. Multiple blobs upload in
	// parallel; either failure fails the join. Nil for operations that
	// store nothing at creation time (async jobs).
	Blobs func(out P) []Blob

	// Persist writes the single metadata record referencing the uploaded keys.
	Persist func(ctx context.Context, out P, keys []string) (R, error)

	// Remove deletes the record written by Persist (compensation).
	Remove func(ctx context.Context, rec R) error
}

// Run executes the generation pipeline. The triplet (blobs, metadata, usage)
// ends all-present or all-absent except across a crash mid-sequence: cleanup
// is best-effort, not transactional. When a rollback itself fails both causes
// are joined so neither is lost.
func Run[P any, R any](ctx context.Context, store storage.BlobStore, gate QuotaGate, op Op[P, R]) (R, error) {
	var zero R

	if op.Validate != nil {
		if err := op.Validate(); err != nil {
			return zero, err
		}
	}

	if err := gate.Check(ctx, op.User, op.Metric, op.Cost); err != nil {
		return zero, err
	}

	out, err := op.Call(ctx)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return zero, err
		}
		return zero, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var blobs []Blob
	if op.Blobs != nil {
		blobs = op.Blobs(out)
	}
	keys := make([]string, len(blobs))
	for i, b := range blobs {
		keys[i] = b.Key
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range blobs {
		b := b
		g.Go(func() error {
			return store.Upload(gctx, b.Key, b.Data, b.ContentType)
		})
	}
	if err := g.Wait(); err != nil {
		return zero, compound(fmt.Errorf("%w: %v", ErrPersistence, err), deleteAll(ctx, store, keys))
	}

	rec, err := op.Persist(ctx, out, keys)
	if err != nil {
		return zero, compound(fmt.Errorf("%w: %v", ErrPersistence, err), deleteAll(ctx, store, keys))
	}

	if err := gate.Debit(ctx, op.User, op.Metric, op.Cost); err != nil {
		cleanup := deleteAll(ctx, store, keys)
		if op.Remove != nil {
			if rerr := op.Remove(ctx, rec); rerr != nil {
				cleanup = errors.Join(cleanup, rerr)
			}
		}
		return zero, compound(err, cleanup)
	}

	return rec, nil
}

// deleteAll removes every uploaded blob, collecting failures.
func deleteAll(ctx context.Context, store storage.BlobStore, keys []string) error {
	var errs error
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			errs = errors.Join(errs, fmt.Errorf("cleanup of %s failed: %w", key, err))
		}
	}
	return errs
}

// compound merges a step failure with its rollback failure, if any.
func compound(stepErr, cleanupErr error) error {
	if cleanupErr == nil {
		return stepErr
	}
	return errors.Join(stepErr, cleanupErr)
}

// ValidateUpload applies the shared payload preconditions: non-empty, within
// the size cap, extension on the allow-list.
func ValidateUpload(filename string, size int64, maxBytes int64, allowed []string) error {
	if size <= 0 {
		return Invalidf("file is empty")
	}
	if size > maxBytes {
		return Invalidf("file too large: %d bytes (max %d)", size, maxBytes)
	}
	ext := fileExt(filename)
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return Invalidf("unsupported file type %q", ext)
}

func fileExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return strings.ToLower(name[i+1:])
		}
		if name[i] == '/' {
			break
		}
	}
	return ""
}
