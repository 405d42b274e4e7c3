// Package offsite mirrors archives to S3-compatible storage. It is
// optional: without credentials the replicator stays disabled and the
// rest of the engine runs unaffected.
package offsite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/saveward/internal/model"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration. Passphrase, when
// set, enables client-side encryption of uploads.
type Config struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Prefix     string
	Passphrase string
}

func (c Config) configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Replicator uploads new archives offsite and removes pruned ones.
type Replicator struct {
	cfg    Config
	client s3Client
	logger *slog.Logger
}

// NewReplicator creates a Replicator. With incomplete credentials it is
// disabled rather than an error.
func NewReplicator(cfg Config, logger *slog.Logger) *Replicator {
	r := &Replicator{cfg: cfg, logger: logger}
	if cfg.configured() {
		r.client = newS3Client(cfg)
	}
	return r
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether uploads will actually happen.
func (r *Replicator) Enabled() bool {
	return r.client != nil
}

// Replicate uploads the archive at archivePath, encrypting first when a
// passphrase is configured. Transient upload failures are retried with
// exponential backoff.
func (r *Replicator) Replicate(ctx context.Context, archivePath string, record model.ArchiveRecord) error {
	if r.client == nil {
		return nil
	}

	uploadPath := archivePath
	if r.cfg.Passphrase != "" {
		encPath := filepath.Join(os.TempDir(), record.Name+".enc")
		if err := encryptFile(archivePath, encPath, r.cfg.Passphrase); err != nil {
			return fmt.Errorf("encrypt for upload: %w", err)
		}
		defer os.Remove(encPath)
		uploadPath = encPath
	}

	key := r.key(record.Name)
	backoff := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		f, err := os.Open(uploadPath)
		if err != nil {
			return err
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			return err
		}

		_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(r.cfg.Bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(stat.Size()),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	r.logger.Info("archive replicated offsite", "archive", record.Name, "key", key)
	return nil
}

// Remove deletes the offsite copy of a pruned archive. A missing
// remote object is not an error.
func (r *Replicator) Remove(ctx context.Context, name string) error {
	if r.client == nil {
		return nil
	}

	key := r.key(name)
	if _, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *Replicator) key(name string) string {
	if r.cfg.Passphrase != "" {
		name += ".enc"
	}
	return path.Join(r.cfg.Prefix, name)
}
