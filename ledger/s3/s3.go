// Package s3 implements a ledger on Amazon S3
// or any S3-compatible object store.
package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/clayledger/cs"
	"github.com/clayledger/cs/internal/param"
	"github.com/clayledger/cs/ledger"
	"github.com/clayledger/cs/ledger/bucket"
)

var _ bucket.Bucket = &Bucket{}

// Config holds configuration for an S3 ledger.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	UsePathStyle bool
}

// Bucket adapts an S3 bucket to bucket.Bucket.
type Bucket struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewBucket produces a Bucket using the given client.
func NewBucket(client *s3.Client, bucketName, prefix string) *Bucket {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Bucket{client: client, bucket: bucketName, prefix: prefix}
}

// New produces a new ledger from cfg.
// It uses the AWS SDK default credential chain (env vars, shared config, IAM role).
func New(ctx context.Context, cfg Config) (*bucket.Ledger, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("S3 bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)
	return bucket.New(NewBucket(client, cfg.Bucket, cfg.Prefix)), nil
}

// Put implements bucket.Bucket.
func (b *Bucket) Put(ctx context.Context, name string, data []byte, exclusive bool) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.prefix + name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if exclusive {
		in.IfNoneMatch = aws.String("*")
	}
	_, err := b.client.PutObject(ctx, in)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "PreconditionFailed" || apiErr.ErrorCode() == "ConditionalRequestConflict") {
		return bucket.ErrExists
	}
	return errors.Wrapf(err, "writing object %s", name)
}

// Get implements bucket.Bucket.
func (b *Bucket) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + name),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil, cs.ErrNotFound
	}
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return nil, cs.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting object %s", name)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	return data, errors.Wrapf(err, "reading contents of object %s", name)
}

// List implements bucket.Bucket.
func (b *Bucket) List(ctx context.Context, prefix string, f func(string) error) error {
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.prefix + prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return errors.Wrap(err, "listing objects")
		}
		for _, obj := range page.Contents {
			err = f(strings.TrimPrefix(aws.ToString(obj.Key), b.prefix))
			if errors.Is(err, bucket.ErrStop) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	ledger.Register("s3", func(ctx context.Context, conf map[string]interface{}) (cs.Ledger, error) {
		var (
			cfg Config
			err error
		)
		if cfg.Bucket, err = param.RequireString(conf, "bucket"); err != nil {
			return nil, err
		}
		cfg.Prefix, _ = param.String(conf, "prefix")
		cfg.Region, _ = param.String(conf, "region")
		cfg.Endpoint, _ = param.String(conf, "endpoint")
		cfg.UsePathStyle, _ = param.Bool(conf, "path_style")
		return New(ctx, cfg)
	})
}
