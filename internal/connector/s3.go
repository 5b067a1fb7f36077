package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/usestring/storeschema-mcp/internal/config"
	"github.com/usestring/storeschema-mcp/pkg/sampler"
)

// objectLister is the subset of the S3 client used for sampling.
type objectLister interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store lists the object keys of a bucket as a hierarchical namespace.
type S3Store struct {
	base
	client objectLister
	bucket string
	prefix string
}

func openS3(ctx context.Context, cfg config.StoreConfig, _ Options) (Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewS3Store(cfg.Name, s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

// NewS3Store wraps an S3 client. Only keys under prefix are listed.
func NewS3Store(name string, client objectLister, bucket, prefix string) *S3Store {
	return &S3Store{
		base:   base{name: name, kind: config.KindS3},
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Keys pages through ListObjectsV2. Keys are returned "/"-rooted so that
// "img/a.png" clusters under "/img/".
func (s *S3Store) Keys(ctx context.Context, batchHint int) (sampler.Cursor[string], error) {
	var (
		token   *string
		started bool
	)
	return sampler.FuncCursor[string](func(ctx context.Context) ([]string, bool, error) {
		if started && token == nil {
			return nil, true, nil
		}
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: token,
		}
		if s.prefix != "" {
			input.Prefix = aws.String(s.prefix)
		}
		if batchHint > 0 {
			input.MaxKeys = aws.Int32(int32(min(batchHint, 1000)))
		}

		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, false, fmt.Errorf("s3 list objects: %w", err)
		}
		started = true

		keys := make([]string, 0, len(out.Contents))
		for _, obj := range out.Contents {
			keys = append(keys, rootedKey(aws.ToString(obj.Key)))
		}

		token = nil
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
		}
		return keys, token == nil, nil
	}), nil
}

func rootedKey(key string) string {
	if strings.HasPrefix(key, "/") {
		return key
	}
	return "/" + key
}

// Close is a no-op; the S3 client holds no connection.
func (s *S3Store) Close() error {
	return nil
}
