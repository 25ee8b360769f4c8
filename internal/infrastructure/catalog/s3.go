package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxCatalogBytes bounds the catalog object read from S3
const maxCatalogBytes = 32 * 1024 * 1024

// ObjectAPI is the subset of the S3 client the catalog needs
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config contains the location of the catalog object.
// Region and Profile fall back to the standard AWS config chain when empty.
type S3Config struct {
	Bucket       string
	Key          string
	Region       string
	Profile      string
	UsePathStyle bool
}

// S3Source reads the catalog YAML from an S3 object
type S3Source struct {
	client ObjectAPI
	bucket string
	key    string
}

// NewS3Source creates an S3 client from the default AWS configuration chain
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3SourceWithClient(client, cfg.Bucket, cfg.Key), nil
}

// NewS3SourceWithClient wraps an existing client
func NewS3SourceWithClient(client ObjectAPI, bucket, key string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key}
}

// Name returns the s3:// location
func (s *S3Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Fingerprint uses the object's ETag, falling back to LastModified
func (s *S3Source) Fingerprint(ctx context.Context) (string, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return "", err
	}
	if etag := aws.ToString(head.ETag); etag != "" {
		return etag, nil
	}
	if head.LastModified != nil {
		return head.LastModified.UTC().String(), nil
	}
	return "", nil
}

// Load downloads and parses the object
func (s *S3Source) Load(ctx context.Context) ([]Entry, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}
	return Parse(data)
}
