// Package media manages product and banner images in object storage.
// Clients upload directly to the bucket through short-lived signed URLs
// and the catalog stores only the object keys.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadURLExpiry = 15 * time.Minute

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var ErrContentTypeNotAllowed = errors.New("content type not allowed for media uploads")

type Storage struct {
	client *storage.Client
	bucket string
}

func NewStorage(ctx context.Context, bucket string) (*Storage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("media bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Storage{client: client, bucket: bucket}, nil
}

// Upload is the signed PUT a client uses to push an image directly to
// the bucket.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewUpload allocates an object key under the given prefix ("products",
// "banners") and signs a PUT URL for it. The key is random so clients
// cannot overwrite each other's objects.
func (s *Storage) NewUpload(ctx context.Context, prefix, contentType string) (*Upload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, ErrContentTypeNotAllowed
	}

	key := path.Join(prefix, uuid.NewString()+ext)

	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		ContentType: contentType,
		Expires:     time.Now().Add(uploadURLExpiry),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload url: %w", err)
	}

	return &Upload{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().Add(uploadURLExpiry),
	}, nil
}

// PublicURL returns the canonical public URL for a stored object key.
func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

// Delete removes an object. A missing object is not an error so that
// catalog cleanup can be retried.
func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}
