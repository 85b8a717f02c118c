// Package publish uploads rendered HTML snapshots to S3-compatible object
// storage.
package publish

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
)

// ContentType is the content type of published snapshots.
const ContentType = "text/html; charset=utf-8"

// ObjectPutter is the subset of the S3 API the publisher needs.
// *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher writes snapshots under a key prefix in one bucket.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
}

// New creates a publisher.
func New(client ObjectPutter, bucket, prefix string) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix}
}

// Publish uploads html as prefix+name and returns the object key.
func (p *Publisher) Publish(ctx context.Context, name string, html []byte) (string, error) {
	key := p.prefix + name
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(html),
		ContentLength: aws.Int64(int64(len(html))),
		ContentType:   aws.String(ContentType),
		Metadata: map[string]string{
			"published-at": time.Now().UTC().Format(time.RFC3339),
			"size":         strconv.Itoa(len(html)),
		},
	})
	if err != nil {
		return "", errors.New("E402").
			WithDetail("s3://" + p.bucket + "/" + key).
			Wrap(err)
	}
	return key, nil
}

// NewS3Client builds an S3 client from the publish configuration. Static
// credentials come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN.
func NewS3Client(cfg config.PublishConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("E403")
	}
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  aws.NewCredentialsCache(envCredentials()),
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts), nil
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		id := os.Getenv("AWS_ACCESS_KEY_ID")
		secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New("E402").
				WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}, nil
	})
}
