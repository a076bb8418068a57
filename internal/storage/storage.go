package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BlobStore is the object-storage contract used by generation flows. All
// binary audio artifacts go through it.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// NewKey builds a storage key scoped by feature and date, e.g.
// tts/2026/08/29/9f1c...e2.mp3
func NewKey(feature, ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.%s", feature, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
