// Package reports archives rebalance run reports to S3-compatible object storage.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader is satisfied by *manager.Uploader
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher writes every run report as a JSON object.
// Runs without actions are archived too so the bucket is a complete run log.
type S3Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Publisher builds an S3 client from cfg. A custom endpoint (R2, MinIO) switches to path-style addressing.
func NewS3Publisher(ctx context.Context, cfg config.ReportConfig, log zerolog.Logger) (*S3Publisher, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewPublisher(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewPublisher creates a publisher over an existing uploader
func NewPublisher(uploader Uploader, bucket, prefix string, log zerolog.Logger) *S3Publisher {
	return &S3Publisher{
		uploader: uploader,
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("notifier", "report_archive").Str("bucket", bucket).Logger(),
	}
}

// Name implements domain.Notifier
func (p *S3Publisher) Name() string {
	return "report_archive"
}

// Key returns the object key of a report: <prefix>/YYYY/MM/DD/<run id>.json
func (p *S3Publisher) Key(report domain.RunReport) string {
	day := report.StartedAt.UTC().Format("2006/01/02")
	return path.Join(p.prefix, day, report.RunID+".json")
}

// Notify uploads the report
func (p *S3Publisher) Notify(ctx context.Context, report domain.RunReport) error {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}

	key := p.Key(report)
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload run report %s: %w", key, err)
	}

	p.log.Info().
		Str("key", key).
		Int("actions", len(report.Actions)).
		Int("size_bytes", len(body)).
		Msg("Run report archived")

	return nil
}
