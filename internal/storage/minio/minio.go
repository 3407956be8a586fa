package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound reports a missing object key.
var ErrNotFound = errors.New("object not found")

// Client wraps the MinIO SDK for the two artifact buckets. Object
// existence under the videos bucket is the only durable record of task
// progress, so the listing call here backs the status endpoint.
type Client struct {
	client      *minio.Client
	videoBucket string
	thumbBucket string
}

// NewClient creates a MinIO client and ensures both buckets exist.
func NewClient(endpoint, accessKey, secretKey string, useSSL bool, videoBucket, thumbBucket string) (*Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &Client{client: mc, videoBucket: videoBucket, thumbBucket: thumbBucket}

	for _, bucket := range []string{videoBucket, thumbBucket} {
		if err := client.ensureBucketExists(context.Background(), bucket); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %s exists: %w", bucket, err)
		}
	}
	return client, nil
}

// ensureBucketExists creates a bucket if it doesn't exist.
func (c *Client) ensureBucketExists(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// UploadVideo stores a video object under key in the videos bucket.
// size may be -1 when unknown; the SDK then streams in parts.
func (c *Client) UploadVideo(ctx context.Context, key string, r io.Reader, size int64) error {
	return c.upload(ctx, c.videoBucket, key, r, size, "video/mp4")
}

// UploadThumbnail stores a thumbnail image under key.
func (c *Client) UploadThumbnail(ctx context.Context, key string, r io.Reader, size int64) error {
	return c.upload(ctx, c.thumbBucket, key, r, size, "image/jpeg")
}

func (c *Client) upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// OpenVideo returns a reader over a video object and its size.
func (c *Client) OpenVideo(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return c.open(ctx, c.videoBucket, key)
}

// OpenThumbnail returns a reader over a thumbnail object and its size.
func (c *Client) OpenThumbnail(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return c.open(ctx, c.thumbBucket, key)
}

// open stats first so a missing key is reported up front rather than on
// the first read of the lazy object handle.
func (c *Client) open(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	stat, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, 0, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, 0, fmt.Errorf("failed to stat %s/%s: %w", bucket, key, err)
	}

	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s/%s: %w", bucket, key, err)
	}
	return obj, stat.Size, nil
}

// ListVideoNames returns the object names under the user's prefix in the
// videos bucket, prefix stripped. One listing call per invocation.
func (c *Client) ListVideoNames(ctx context.Context, userID string) ([]string, error) {
	prefix := userID + "/"
	var names []string
	for obj := range c.client.ListObjects(ctx, c.videoBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", c.videoBucket, prefix, obj.Err)
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	return names, nil
}
