package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const exportPrefix = "exports"

// Client stores CSV exports in an S3-compatible bucket.
type Client struct {
	raw    *minio.Client
	bucket string
	logg   *logger.Logger
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds the minio client. It does not dial; call Ping or EnsureBucket.
func NewClient(cfg config.BlobConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("blob endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("blob bucket is required")
	}
	raw, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &Client{raw: raw, bucket: cfg.Bucket, logg: logg}, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// Ping verifies the bucket is reachable and exists.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.raw.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", c.bucket)
	}
	return nil
}

// EnsureBucket creates the bucket when it is missing.
func (c *Client) EnsureBucket(ctx context.Context, region string) error {
	ok, err := c.raw.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if ok {
		return nil
	}
	if err := c.raw.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "bucket", c.bucket), "blob bucket created")
	}
	return nil
}

// Put uploads body under key.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.raw.PutObject(ctx, c.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get downloads the object stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.raw.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// ExportKey names an export object as exports/<kind>/<UTC timestamp>.csv.
func ExportKey(kind string, at time.Time) string {
	kind = strings.Trim(strings.ToLower(strings.TrimSpace(kind)), "/")
	return fmt.Sprintf("%s/%s/%s.csv", exportPrefix, kind, at.UTC().Format("20060102T150405Z"))
}
