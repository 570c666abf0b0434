package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/internal/telemetry"
	"github.com/voxhall/callstream/pkg/models"
)

const (
	exportMaxRetries     = 3
	exportInitialBackoff = 100 * time.Millisecond
	exportMaxBackoff     = 2 * time.Second
)

// Exporter uploads call bundles to S3-compatible storage before they are
// archived. One object per call: the call row with its packets and AI result
// marshalled as a single JSON document.
type Exporter struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewExporter builds an S3 client from the given configuration and verifies
// bucket access. The bucket must already exist.
func NewExporter(ctx context.Context, cfg S3Config) (*Exporter, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("archive bucket is not configured")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS client config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible endpoints rarely support virtual-hosted buckets.
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("cannot reach bucket %q: %w", cfg.Bucket, err)
	}

	return &Exporter{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Export uploads the call bundle. The call should be loaded with its packets
// and AI result so the object is self-contained. Transient upload errors are
// retried with exponential backoff.
func (e *Exporter) Export(ctx context.Context, call *models.Call) (err error) {
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call %s: %w", call.CallID, err)
	}

	key := e.objectKey(call.CallID)

	ctx, span := telemetry.StartExportSpan(ctx, call.CallID, e.bucket, key)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
	}()

	var lastErr error
	for attempt := 0; attempt <= exportMaxRetries; attempt++ {
		if attempt > 0 {
			wait := exportBackoff(attempt - 1)
			logger.Debug("Retrying archive export",
				logger.CallID(call.CallID),
				logger.Attempt(attempt),
				logger.Backoff(wait))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		_, lastErr = e.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		switch {
		case lastErr == nil:
			logger.Debug("Uploaded call bundle",
				logger.CallID(call.CallID),
				slog.String(logger.KeyBucket, e.bucket),
				slog.String(logger.KeyKey, key))
			return nil
		case !retryable(lastErr):
			return fmt.Errorf("failed to export call %s: %w", call.CallID, lastErr)
		}
	}

	return fmt.Errorf("failed to export call %s after %d attempts: %w",
		call.CallID, exportMaxRetries+1, lastErr)
}

// objectKey returns the object key for a call bundle: <prefix>/<call_id>.json.
func (e *Exporter) objectKey(callID string) string {
	key := callID + ".json"
	if e.prefix == "" {
		return key
	}
	return strings.TrimSuffix(e.prefix, "/") + "/" + key
}

// retryable reports whether an upload error is worth another attempt.
// Cancellation and S3 access errors are final; throttling, 5xx responses
// and transport timeouts are not.
func retryable(err error) bool {
	if err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"InternalError", "ServiceUnavailable":
			return true
		case "NoSuchBucket", "AccessDenied", "Forbidden", "InvalidRequest":
			return false
		}
	}

	// Wrapped transport failures often surface only in the message.
	msg := err.Error()
	for _, marker := range []string{"connection reset", "connection refused", "i/o timeout", "503", "500"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// exportBackoff doubles the initial delay per completed attempt, capped at
// exportMaxBackoff.
func exportBackoff(attempt int) time.Duration {
	d := exportInitialBackoff << attempt
	if d > exportMaxBackoff || d <= 0 {
		d = exportMaxBackoff
	}
	return d
}
