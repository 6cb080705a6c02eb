// Package publish uploads packaged units to an S3-compatible object store.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/metrics"
	"github.com/gyaneshwarpardhi/unitmap/internal/pack"
)

// Client is the subset of *minio.Client the publisher uses.
type Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Publisher uploads unit files under <prefix>/<build_id>/<file>.
type S3Publisher struct {
	client Client
	bucket string
	region string
	prefix string
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
}

// NewS3Publisher connects to the store described by cfg.
func NewS3Publisher(cfg config.S3Conf, logger *slog.Logger) (*S3Publisher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	p := New(client, cfg.Bucket, cfg.Prefix, logger)
	p.region = region
	return p, nil
}

// New returns a publisher over an existing client.
func New(client Client, bucket, prefix string, logger *slog.Logger) *S3Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Publisher{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
		logger: logger,
	}
}

func (p *S3Publisher) ensureBucket(ctx context.Context) error {
	p.initOnce.Do(func() {
		exists, err := p.client.BucketExists(ctx, p.bucket)
		if err != nil {
			p.initErr = err
			return
		}
		if exists {
			return
		}
		p.initErr = p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
	})
	return p.initErr
}

// Key returns the object key of a unit file.
func (p *S3Publisher) Key(buildID, file string) string {
	return path.Join(p.prefix, buildID, strings.TrimLeft(file, "/"))
}

// Publish uploads every unit of m that has a file under outputDir. Units
// without a file, as produced by the dryrun backend, are skipped.
func (p *S3Publisher) Publish(ctx context.Context, outputDir string, m *pack.Manifest) ([]string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	var keys []string
	for _, u := range m.Units {
		if u.File == "" {
			continue
		}
		key := p.Key(m.BuildID, u.File)
		if err := p.put(ctx, filepath.Join(outputDir, filepath.FromSlash(u.File)), key); err != nil {
			metrics.UnitsPublished.WithLabelValues("error").Inc()
			return keys, fmt.Errorf("publish %s: %w", u.Key, err)
		}
		metrics.UnitsPublished.WithLabelValues("success").Inc()
		p.logger.Debug("unit published", "unit", u.Key, "bucket", p.bucket, "key", key)
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *S3Publisher) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = p.client.PutObject(ctx, p.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}
