package s3presign

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"podo/internal/config"
	"podo/internal/services"
)

// Options configures a Presigner.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	TTL             time.Duration
}

// OptionsFromConfig extracts presign options from the storage section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		PathStyle:       cfg.Storage.PathStyle,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		TTL:             cfg.PresignTTL(),
	}
}

// Presigner signs PutObject URLs for one bucket.
type Presigner struct {
	bucket string
	ttl    time.Duration
	client *s3.PresignClient
}

// New loads AWS configuration and returns a Presigner. Static credentials
// are used when both keys are set; otherwise the default chain applies.
func New(ctx context.Context, opts Options) (*Presigner, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "s3presign", "init", "bucket is required", nil)
	}
	if opts.TTL <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "s3presign", "init", "presign ttl must be positive", nil)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "s3presign", "init", "load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		// MinIO and most self-hosted stores need path-style addressing.
		o.UsePathStyle = opts.PathStyle
	})

	return &Presigner{
		bucket: opts.Bucket,
		ttl:    opts.TTL,
		client: s3.NewPresignClient(client),
	}, nil
}

// PresignPut returns a URL that accepts one PUT of key until the TTL elapses.
func (p *Presigner) PresignPut(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "s3presign", "presign", "empty object key", nil)
	}
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", services.Wrap(services.ErrAuthorization, "s3presign", "presign", key, err)
	}
	return req.URL, nil
}

// ForSession returns an upload authorizer that stores every object under
// the evaluation id.
func (p *Presigner) ForSession(evaluationID string) *Authorizer {
	return &Authorizer{presigner: p, prefix: evaluationID}
}

// Authorizer implements upload.Authorizer for one evaluation.
type Authorizer struct {
	presigner *Presigner
	prefix    string
}

// ObjectKey returns the bucket key for a remote key.
func (a *Authorizer) ObjectKey(remoteKey string) string {
	return path.Join(a.prefix, remoteKey)
}

// Authorize signs a PUT URL for remoteKey.
func (a *Authorizer) Authorize(ctx context.Context, remoteKey string) (string, error) {
	if strings.TrimSpace(remoteKey) == "" {
		return "", fmt.Errorf("%w: empty remote key", services.ErrValidation)
	}
	return a.presigner.PresignPut(ctx, a.ObjectKey(remoteKey))
}
