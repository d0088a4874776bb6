package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config describes the object store targeted by an S3Store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	KeyPrefix string
}

// S3Store implements BlobStore backed by an S3-compatible service.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store configures a client and uploader targeting the provided
// object store. A non-empty Endpoint points at S3-compatible services
// such as MinIO, forcing path-style addressing.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	prefix := strings.Trim(cfg.KeyPrefix, "/")
	if prefix == "" {
		prefix = "videos"
	}

	return &S3Store{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		prefix:   prefix,
	}, nil
}

// Put uploads the payload under the id's object key.
func (s *S3Store) Put(ctx context.Context, id int64, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
		Body:   manager.ReadSeekCloser(r),
	})
	if err != nil {
		return fmt.Errorf("s3 storage upload %d: %w", id, err)
	}
	return nil
}

// Get opens the object stored under the id's key.
func (s *S3Store) Get(ctx context.Context, id int64) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 storage get %d: %w", id, err)
	}
	return out.Body, nil
}

// Delete removes the object stored under the id's key.
func (s *S3Store) Delete(ctx context.Context, id int64) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %d: %w", id, err)
	}
	return nil
}

func (s *S3Store) key(id int64) string {
	return s.prefix + "/" + strconv.FormatInt(id, 10)
}

var _ BlobStore = (*S3Store)(nil)
