package share

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config describes the bucket memes are published to.
type S3Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string        // when set, links are PublicBaseURL/key instead of presigned
	LinkTTL       time.Duration // lifetime of presigned links
}

// S3Publisher uploads memes to S3-compatible object storage.
type S3Publisher struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
	ttl     time.Duration

	mu    sync.Mutex
	ready bool // bucket known to exist
}

func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	ttl := cfg.LinkTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Publisher{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		ttl:     ttl,
	}, nil
}

// ensureBucket checks for the bucket, creating it if needed. Only success
// is remembered so a failed attempt is retried on the next publish.
func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
			return err
		}
	}
	p.ready = true
	return nil
}

// Publish uploads png under a fresh key and returns a URL for it.
func (p *S3Publisher) Publish(ctx context.Context, png []byte) (string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	key := objectKey(uuid.NewString())
	_, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(png), int64(len(png)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", err
	}
	if p.baseURL != "" {
		return p.baseURL + "/" + key, nil
	}
	u, err := p.client.PresignedGetObject(ctx, p.bucket, key, p.ttl, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func objectKey(id string) string {
	return "memes/" + id + ".png"
}
