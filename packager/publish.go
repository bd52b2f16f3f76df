package packager

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Publisher copies a finalized archive to external storage.
type Publisher interface {
	Publish(ctx context.Context, id, archivePath string) error
}

// MinioConfig configures the object storage publisher.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

func (c MinioConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("minio bucket is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("minio access key and secret key are required")
	}
	return nil
}

// MinioPublisher uploads archives as <id>/loadergen.zip.
type MinioPublisher struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioPublisher connects a publisher. The bucket is created on first use.
func NewMinioPublisher(cfg MinioConfig) (*MinioPublisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &MinioPublisher{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// ObjectKey returns the object name an archive is stored under.
func ObjectKey(id string) string {
	return path.Join(id, ArchiveName)
}

func (p *MinioPublisher) Publish(ctx context.Context, id, archivePath string) error {
	if err := p.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", p.bucket, err)
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	_, err = p.client.PutObject(ctx, p.bucket, ObjectKey(id), f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", ObjectKey(id), err)
	}
	return nil
}

func (p *MinioPublisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
