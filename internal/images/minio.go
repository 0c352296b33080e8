package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/cellar/internal/config"
)

// objectClient defines the minimal minio.Client operations used by MinIOStore.
type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	RemoveObjects(ctx context.Context, bucket string, keys []string) error
}

// minioClientWrapper adapts *minio.Client, whose option structs and channel
// based listing do not fit a small interface.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return w.client.BucketExists(ctx, bucket)
}

func (w *minioClientWrapper) MakeBucket(ctx context.Context, bucket, region string) error {
	return w.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := w.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range w.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (w *minioClientWrapper) RemoveObjects(ctx context.Context, bucket string, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)
	return firstRemoveError(w.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}))
}

// firstRemoveError drains results and returns the first failure. The channel
// must be read to the end or the minio producer goroutine blocks.
func firstRemoveError(results <-chan minio.RemoveObjectError) error {
	var first error
	for result := range results {
		if result.Err != nil && first == nil {
			first = fmt.Errorf("%s: %w", result.ObjectName, result.Err)
		}
	}
	return first
}

// MinIOStore stores label images in an S3-compatible bucket.
type MinIOStore struct {
	client  objectClient
	bucket  string
	region  string
	baseURL string
	now     func() time.Time

	mu          sync.Mutex
	bucketReady bool
}

// NewMinIOStore creates a store for the configured bucket. No network call is
// made until the first upload, which creates the bucket if needed.
func NewMinIOStore(cfg config.ImagesConfig) (*MinIOStore, error) {
	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return newMinIOStore(&minioClientWrapper{client: client}, cfg, useSSL), nil
}

func newMinIOStore(client objectClient, cfg config.ImagesConfig, useSSL bool) *MinIOStore {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "https"
		if !useSSL {
			scheme = "http"
		}
		baseURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}
	return &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Enabled always reports true.
func (s *MinIOStore) Enabled() bool { return true }

// Upload decodes an inline image, stores it and returns its public URL.
func (s *MinIOStore) Upload(ctx context.Context, wineID string, side Side, image string) (string, error) {
	if !IsDataURL(image) {
		return image, nil
	}
	img, err := ParseDataURL(image)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := objectKey(wineID, side, img.MIMEType, s.now())
	if err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.MIMEType); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// DeleteAll removes every object under the wine's prefix.
func (s *MinIOStore) DeleteAll(ctx context.Context, wineID string) error {
	keys, err := s.client.ListObjects(ctx, s.bucket, wineID+"/")
	if err != nil {
		return fmt.Errorf("list images of %s: %w", wineID, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.RemoveObjects(ctx, s.bucket, keys); err != nil {
		return fmt.Errorf("delete images of %s: %w", wineID, err)
	}
	return nil
}

// PublicURL returns the address a browser can load the object from.
func (s *MinIOStore) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

func (s *MinIOStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, s.region); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	s.bucketReady = true
	return nil
}

// objectKey returns the object key for a label image.
// Convention: {wine_id}/{side}-{unix_millis}.{ext}
func objectKey(wineID string, side Side, mime string, at time.Time) string {
	return fmt.Sprintf("%s/%s-%d.%s", wineID, side, at.UnixMilli(), Extension(mime))
}
