package publish

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
	"github.com/vk/paperforge/internal/failure"
)

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	// Prefix is prepended to every object key.
	Prefix string
}

// Validate reports the first missing or malformed field.
func (c S3Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}

// bucketClient is the part of *minio.Client the publisher uses.
type bucketClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Publisher uploads artifacts to a bucket, creating it when missing.
type S3Publisher struct {
	root   string
	cfg    S3Config
	client bucketClient
}

// NewS3Publisher validates cfg and builds a MinIO client for it.
func NewS3Publisher(root string, cfg S3Config) (*S3Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid s3 configuration: %w", err)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &S3Publisher{root: root, cfg: cfg, client: client}, nil
}

// Publish uploads every artifact and the report.
func (p *S3Publisher) Publish(ctx context.Context, out artifact.Output, rep artifact.Report) error {
	target := "s3://" + p.cfg.Bucket
	logger := ctxlog.FromContext(ctx).With("target", target)

	if err := p.ensureBucket(ctx); err != nil {
		return &failure.PublishError{Target: target, Err: fmt.Errorf("ensure bucket: %w", err)}
	}

	for _, rel := range files(out, rep) {
		src := filepath.Join(p.root, rel)
		if _, err := os.Stat(src); err != nil {
			return &failure.PublishError{Target: target, Err: err}
		}
		key := p.objectKey(rel)
		info, err := p.client.FPutObject(ctx, p.cfg.Bucket, key, src, minio.PutObjectOptions{ContentType: contentType(rel)})
		if err != nil {
			return &failure.PublishError{Target: target, Err: fmt.Errorf("upload %s: %w", rel, err)}
		}
		logger.Info("Uploaded artifact.", "key", key, "size", info.Size)
	}
	return nil
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region})
}

func (p *S3Publisher) objectKey(rel string) string {
	key := filepath.ToSlash(rel)
	if p.cfg.Prefix == "" {
		return key
	}
	return path.Join(strings.Trim(p.cfg.Prefix, "/"), key)
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
