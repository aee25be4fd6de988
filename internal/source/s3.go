package source

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/triplake/triplake/internal/decode"
	terrors "github.com/triplake/triplake/internal/errors"
)

// S3Config holds configuration for the S3 file source.
type S3Config struct {
	// Bucket is the bucket holding the drop files.
	Bucket string
	// Region is the AWS region for the bucket.
	Region string
	// Endpoint is an optional custom endpoint (for MinIO, LocalStack, etc.).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
	// Prefix scopes listing to one key prefix, e.g. "drops/2023/".
	Prefix string
}

// S3Source fetches raw trip files from an S3 bucket.
type S3Source struct {
	client     *s3.Client
	cfg        S3Config
	maxRetries int
}

// NewS3Source creates an S3Source for cfg.Bucket.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, terrors.NewTransportError(terrors.CodeListFailed, "failed to load AWS config", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Source{
		client:     s3.NewFromConfig(awsCfg, s3Opts...),
		cfg:        cfg,
		maxRetries: 3,
	}, nil
}

// NewS3SourceWithClient creates an S3Source with a pre-configured client.
func NewS3SourceWithClient(client *s3.Client, cfg S3Config) *S3Source {
	return &S3Source{client: client, cfg: cfg, maxRetries: 3}
}

// List returns the data files under the configured prefix. Names are given
// relative to the prefix so callers can use them as local file names.
func (s *S3Source) List(ctx context.Context) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(s.cfg.Prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, terrors.NewTransportError(terrors.CodeListFailed, "failed to list drop objects", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.cfg.Prefix)
			name = strings.TrimPrefix(name, "/")
			if name == "" || strings.HasSuffix(name, "/") {
				continue
			}
			if format, _ := decode.DetectFormat(name); format == decode.FormatUnknown {
				continue
			}
			names = append(names, name)
		}
	}

	return names, nil
}

// Download fetches one drop object into localPath.
func (s *S3Source) Download(ctx context.Context, name, localPath string) error {
	key := name
	if s.cfg.Prefix != "" {
		key = path.Join(s.cfg.Prefix, name)
	}

	var resp *s3.GetObjectOutput
	err := s.retryWithBackoff(ctx, func() error {
		var getErr error
		resp, getErr = s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		return getErr
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return terrors.NewTransportError(terrors.CodeFileNotFound, "drop object not found", err)
		}
		return terrors.NewTransportError(terrors.CodeDownloadFailed, "failed to get drop object", err)
	}
	defer resp.Body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return terrors.NewTransportError(terrors.CodeDownloadFailed, "failed to create local file", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(localPath)
		return terrors.NewTransportError(terrors.CodeDownloadFailed, "failed to write local file", err)
	}

	return file.Close()
}

// retryWithBackoff executes the operation with exponential backoff retry.
func (s *S3Source) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		// Missing objects will not appear on retry.
		var noSuchKey *s3types.NoSuchKey
		if errors.As(lastErr, &noSuchKey) {
			return lastErr
		}

		if attempt < s.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
