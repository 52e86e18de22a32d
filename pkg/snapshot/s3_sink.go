package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API the sink needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the bucket settings for S3 exports.
// Bucket is overridden by the destination when one is given.
type S3Config struct {
	Bucket         string `env:"SNAPSHOT_S3_BUCKET"`
	Region         string `env:"SNAPSHOT_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"SNAPSHOT_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"SNAPSHOT_S3_SECRET_KEY"`
	Endpoint       string `env:"SNAPSHOT_S3_ENDPOINT"`         // S3-compatible services
	ForcePathStyle bool   `env:"SNAPSHOT_S3_FORCE_PATH_STYLE"` // MinIO and friends

	UploadTimeout time.Duration `env:"SNAPSHOT_S3_UPLOAD_TIMEOUT" envDefault:"30s"`
}

// S3Option configures NewS3Sink.
type S3Option func(*s3Options)

type s3Options struct {
	client     S3Client
	httpClient *http.Client
}

// WithS3Client uses a pre-configured client instead of loading AWS config.
func WithS3Client(c S3Client) S3Option {
	return func(o *s3Options) {
		o.client = c
	}
}

// WithHTTPClient sets the HTTP client used by the AWS SDK.
func WithHTTPClient(c *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = c
	}
}

// S3Sink uploads the document as a single object.
type S3Sink struct {
	client  S3Client
	bucket  string
	key     string
	timeout time.Duration
}

// NewS3Sink returns a sink that uploads to key in cfg.Bucket. Without
// WithS3Client the client is built from cfg; static keys are used when both
// are set, the default AWS credential chain otherwise.
func NewS3Sink(ctx context.Context, cfg S3Config, key string, opts ...S3Option) (*S3Sink, error) {
	if cfg.Bucket == "" || key == "" {
		return nil, ErrInvalidConfig
	}

	o := &s3Options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		if cfg.Region == "" {
			return nil, ErrInvalidConfig
		}
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}
		client = s3.NewFromConfig(awsConfig, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Sink{client: client, bucket: cfg.Bucket, key: key, timeout: cfg.UploadTimeout}, nil
}

// Location returns the s3:// URL of the object.
func (s *S3Sink) Location() string { return "s3://" + s.bucket + "/" + s.key }

// Write uploads data as a single JSON object.
func (s *S3Sink) Write(ctx context.Context, data []byte) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return errors.Join(ErrFailedToWrite, classifyS3Error(err))
	}
	return nil
}

// classifyS3Error maps SDK errors to package errors.
func classifyS3Error(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrOperationTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrOperationCanceled, err)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); code {
		case "NoSuchBucket":
			return ErrBucketNotFound
		case "AccessDenied":
			return fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.ErrorMessage())
		case "SlowDown", "ServiceUnavailable":
			return ErrServiceUnavailable
		default:
			return fmt.Errorf("upload failed (code: %s): %w", code, err)
		}
	}
	return fmt.Errorf("upload failed: %w", err)
}
