package snapshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ExportConfig configures the S3 archive target.
type ExportConfig struct {
	Bucket string
	Region string
	// Prefix is prepended to every object key, e.g. "snapshots".
	Prefix string
	// Endpoint overrides the AWS endpoint (for MinIO or localstack).
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Exporter archives snapshot runs to S3 as JSON documents.
type Exporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewExporter builds an S3 client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies (IAM
// roles, env vars, shared config).
func NewExporter(ctx context.Context, cfg ExportConfig) (*Exporter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("export bucket is required")
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Exporter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Export uploads the run as a JSON document and returns the object key. Keys
// are partitioned by day so archives stay listable:
// <prefix>/2026/08/25/<run id>.json.
func (e *Exporter) Export(ctx context.Context, run *Run) (string, error) {
	body, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}

	key := exportKey(e.prefix, run)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload run to s3: %w", err)
	}
	return key, nil
}

// HealthCheck verifies the archive bucket is reachable.
func (e *Exporter) HealthCheck(ctx context.Context) error {
	_, err := e.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(e.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func exportKey(prefix string, run *Run) string {
	day := run.TakenAt.UTC().Format("2006/01/02")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.json", day, run.ID)
	}
	return fmt.Sprintf("%s/%s/%s.json", prefix, day, run.ID)
}
