package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

const (
	// URLPrefix marks an input read from object storage
	URLPrefix = "s3://"

	defaultRegion = "us-east-1"
)

// Options configures the connection to an S3 compatible store
type Options struct {
	// Endpoint overrides the AWS endpoint, e.g. a MinIO server. Requests
	// then use path style addressing.
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// OptionsFromEnv reads S3_ENDPOINT, AWS_REGION, AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY
func OptionsFromEnv() Options {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}
	return Options{
		Endpoint:  os.Getenv("S3_ENDPOINT"),
		Region:    region,
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

// ParseURL splits s3://bucket/prefix into its bucket and key prefix
func ParseURL(url string) (string, string, error) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", "", fmt.Errorf("'%s' does not start with %s", url, URLPrefix)
	}

	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(url, URLPrefix), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("no bucket in '%s'", url)
	}
	return bucket, prefix, nil
}

// ObjectStore reads objects of one bucket
type ObjectStore struct {
	client *s3.Client
	bucket string
}

// NewObjectStore creates a client for bucket. Without an access key the
// default AWS credential chain is used.
func NewObjectStore(ctx context.Context, bucket string, opts Options) (*ObjectStore, error) {
	logrus.Debugf("Creating object store for bucket: %s (endpoint: '%s')", bucket, opts.Endpoint)

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ObjectStore{client: client, bucket: bucket}, nil
}

// List returns the keys under prefix in lexical order
func (o *ObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	logrus.Debugf("S3 List: %s/%s", o.bucket, prefix)

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(o.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(o.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// Reader returns the body of an object
func (o *ObjectStore) Reader(ctx context.Context, key string) (io.ReadCloser, error) {
	logrus.Debugf("S3 Reader: %s/%s", o.bucket, key)

	result, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return result.Body, nil
}
