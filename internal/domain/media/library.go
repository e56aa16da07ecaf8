// Package media is the promo image library: operators upload images over
// the API, and the scheduler occasionally attaches one to a Telegram post.
package media

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charlielabs/charlie/internal/storage"
)

// Store is the object storage the library sits on
type Store interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
	ListKeys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	URLFor(key string) string
}

// Image describes one stored promo image
type Image struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Library manages the promo image pool
type Library struct {
	store Store
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewLibrary creates a library on top of the given store
func NewLibrary(store Store) *Library {
	return &Library{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add uploads a new promo image
func (l *Library) Add(ctx context.Context, r io.Reader, contentType, filename string, size int64) (*Image, error) {
	out, err := l.store.Upload(ctx, storage.UploadInput{
		Reader:      r,
		ContentType: contentType,
		Size:        size,
		Filename:    filename,
	})
	if err != nil {
		return nil, fmt.Errorf("adding promo image: %w", err)
	}
	return &Image{Key: out.Key, URL: out.URL, Size: out.Size, UploadedAt: out.UploadedAt}, nil
}

// Images lists the stored promo images. Size and upload time are not
// tracked for listed images, only key and public URL.
func (l *Library) Images(ctx context.Context) ([]Image, error) {
	keys, err := l.store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing promo images: %w", err)
	}
	images := make([]Image, 0, len(keys))
	for _, key := range keys {
		images = append(images, Image{Key: key, URL: l.store.URLFor(key)})
	}
	return images, nil
}

// Random returns the public URL of a randomly chosen promo image, or an
// empty string when the library is empty.
func (l *Library) Random(ctx context.Context) (string, error) {
	keys, err := l.store.ListKeys(ctx)
	if err != nil {
		return "", fmt.Errorf("picking promo image: %w", err)
	}
	if len(keys) == 0 {
		return "", nil
	}

	l.mu.Lock()
	key := keys[l.rng.Intn(len(keys))]
	l.mu.Unlock()

	return l.store.URLFor(key), nil
}

// Remove deletes a promo image by key
func (l *Library) Remove(ctx context.Context, key string) error {
	if err := l.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("removing promo image: %w", err)
	}
	return nil
}
