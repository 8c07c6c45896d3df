package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store keeps archives in a single S3 (or MinIO) bucket. Keys map to object keys.
type S3Store struct {
	client *s3.Client
	bucket string
}

// S3Config holds the construction parameters. Credentials come from the default
// AWS chain (AWS_ACCESS_KEY_ID and friends).
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional, e.g. a MinIO URL
	PathStyle bool
}

// NewS3Store creates an S3 archive store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "ap-northeast-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Store) Driver() Driver { return DriverS3 }

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	// create-only is emulated with a HEAD first
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err == nil {
		return Info{}, fmt.Errorf("%s: %w", key, ErrExists)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = &contentType
	}
	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return Info{}, fmt.Errorf("failed to put archive %s: %w", key, err)
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Info{Key: key, ContentType: contentType, ETag: trimETag(out.ETag), LastModified: time.Now().UTC()}, nil
	}
	return s.info(key, head.ContentLength, head.ContentType, head.ETag, head.LastModified), nil
}

func (s *S3Store) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return Info{}, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return Info{}, nil, fmt.Errorf("failed to get archive %s: %w", key, err)
	}
	return s.info(key, out.ContentLength, out.ContentType, out.ETag, out.LastModified), out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, fmt.Errorf("failed to delete archive %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("failed to list archives: %w", err)
		}
		for _, obj := range out.Contents {
			infos = append(infos, Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         trimETag(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *S3Store) info(key string, size *int64, contentType, etag *string, lastModified *time.Time) Info {
	lm := time.Now().UTC()
	if lastModified != nil {
		lm = *lastModified
	}
	return Info{
		Key:          key,
		Size:         aws.ToInt64(size),
		ContentType:  aws.ToString(contentType),
		ETag:         trimETag(etag),
		LastModified: lm,
	}
}

func trimETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
