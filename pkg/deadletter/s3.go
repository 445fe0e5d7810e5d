package deadletter

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-graphsink/pkg/metrics"
)

// PutObjectAPI is the subset of the S3 client used by S3Archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config locates the bucket. Endpoint and path-style addressing serve
// S3-compatible stores such as MinIO.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Client builds an S3 client from cfg, falling back to the default
// credential chain when no static keys are given.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3Archive uploads each failed batch as its own object under
// <prefix>/<label>/<yyyy-mm-dd>/<id>.json.sz.
type S3Archive struct {
	client  PutObjectAPI
	bucket  string
	prefix  string
	metrics *metrics.Registry
}

// NewS3Archive creates an archive writing into bucket.
func NewS3Archive(client PutObjectAPI, bucket, prefix string, opts ...Option) *S3Archive {
	return &S3Archive{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		metrics: applyOptions(opts).metrics,
	}
}

// Key returns the object key for batch.
func (a *S3Archive) Key(batch FailedBatch) string {
	return path.Join(a.prefix, batch.Label, batch.Time.UTC().Format("2006-01-02"), batch.ID+".json.sz")
}

func (a *S3Archive) Record(ctx context.Context, batch FailedBatch) error {
	batch.stamp()
	data, err := encode(batch)
	if err != nil {
		a.metrics.RecordDeadLetter("s3", "error", 0)
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(a.Key(batch)),
		Body:            bytes.NewReader(data),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("x-snappy"),
		Metadata: map[string]string{
			"label":   batch.Label,
			"subtask": batch.Subtask,
			"mode":    batch.Mode,
		},
	})
	if err != nil {
		a.metrics.RecordDeadLetter("s3", "error", 0)
		return fmt.Errorf("failed to upload batch %s: %w", batch.ID, err)
	}
	a.metrics.RecordDeadLetter("s3", "success", len(data))
	return nil
}

func (a *S3Archive) Close() error { return nil }
