// Package reliability provides backup of store snapshots to S3-compatible
// cloud storage with checksum metadata and retention pruning.
package reliability

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/mstamatakis/drachma/internal/config"
	"github.com/mstamatakis/drachma/internal/persist"
	"github.com/mstamatakis/drachma/internal/store"
)

// BackupInfo describes one stored backup object.
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupService uploads gzipped msgpack snapshots of the store.
type BackupService struct {
	client *s3.Client
	bucket string
	prefix string
	keep   int
	log    zerolog.Logger
}

// NewBackupService builds the S3 client from backup configuration. A custom
// endpoint switches the client to S3-compatible providers.
func NewBackupService(ctx context.Context, cfg *config.BackupConfig, log zerolog.Logger) (*BackupService, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &BackupService{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		keep:   cfg.Keep,
		log:    log.With().Str("component", "backup").Logger(),
	}, nil
}

// Backup exports the store, encodes and compresses the snapshot, and
// uploads it with its checksum recorded in object metadata.
func (s *BackupService) Backup(ctx context.Context, st *store.Store) (*BackupInfo, error) {
	encoded, err := persist.EncodeSnapshot(st.ExportTables())
	if err != nil {
		return nil, err
	}

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(encoded); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize snapshot archive: %w", err)
	}

	checksum := sha256.Sum256(compressed.Bytes())
	now := time.Now().UTC()
	key := fmt.Sprintf("%s/snapshot-%s.msgpack.gz", s.prefix, now.Format("20060102-150405"))

	uploader := manager.NewUploader(s.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(compressed.Bytes()),
		ContentType: aws.String("application/gzip"),
		Metadata: map[string]string{
			"checksum-sha256": hex.EncodeToString(checksum[:]),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload backup: %w", err)
	}

	info := &BackupInfo{
		Key:       key,
		Timestamp: now,
		SizeBytes: int64(compressed.Len()),
	}
	s.log.Info().
		Str("key", key).
		Int64("size_bytes", info.SizeBytes).
		Msg("Backup uploaded")

	if err := s.prune(ctx); err != nil {
		// A failed prune never fails the backup itself.
		s.log.Warn().Err(err).Msg("Backup retention pruning failed")
	}
	return info, nil
}

// List returns the stored backups, newest first.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		backups = append(backups, BackupInfo{
			Key:       aws.ToString(obj.Key),
			Timestamp: aws.ToTime(obj.LastModified),
			SizeBytes: aws.ToInt64(obj.Size),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// prune removes the oldest backups beyond the retention count.
func (s *BackupService) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}
	backups, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, old := range backups[min(s.keep, len(backups)):] {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(old.Key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete old backup %s: %w", old.Key, err)
		}
		s.log.Debug().Str("key", old.Key).Msg("Old backup pruned")
	}
	return nil
}
