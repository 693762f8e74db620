package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client the fetcher needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads a CSV or XLSX object with the default AWS credential
// chain.
type S3Fetcher struct {
	Bucket string
	Key    string
	Region string
	Sheet  string

	// Client overrides the client built from the default config.
	Client S3API
}

func (f *S3Fetcher) client(ctx context.Context) (S3API, error) {
	if f.Client != nil {
		return f.Client, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if f.Region != "" {
		opts = append(opts, awsconfig.WithRegion(f.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func (f *S3Fetcher) Fetch(ctx context.Context) ([][]string, error) {
	client, err := f.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.Bucket),
		Key:    aws.String(f.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", f.Bucket, f.Key, err)
	}
	defer out.Body.Close()
	return decode(out.Body, f.Key, aws.ToString(out.ContentType), f.Sheet)
}
