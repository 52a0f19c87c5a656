package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config points the archive at any S3-compatible store. Endpoint is
// optional for AWS itself; R2, MinIO and friends need it.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	Prefix          string
	UsePathStyle    bool
}

type s3Archive struct {
	s3Client      *s3.Client
	bucketName    string
	publicBaseURL string
	prefix        string
}

func NewS3Archive(ctx context.Context, cfg S3Config) (FileUploader, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, errors.New("invalid archive configuration: access key, secret and bucket are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion(region),
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           cfg.Endpoint,
				SigningRegion: region,
			}, nil
		})
		opts = append(opts, config.WithEndpointResolverWithOptions(resolver))
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for archive: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &s3Archive{
		s3Client:      client,
		bucketName:    cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
		prefix:        strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (u *s3Archive) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if u.prefix == "" {
		return key
	}
	return u.prefix + "/" + key
}

func (u *s3Archive) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	objectKey := u.objectKey(key)
	result, err := u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(objectKey),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload archive object (key: %s): %w", objectKey, err)
	}

	etag := ""
	if result.ETag != nil {
		// S3-compatible APIs quote the ETag.
		etag = strings.Trim(*result.ETag, "\"")
	}
	return &UploadResult{
		Key:      objectKey,
		Location: u.GetPublicURL(key),
		ETag:     etag,
	}, nil
}

func (u *s3Archive) Delete(ctx context.Context, key string) error {
	objectKey := u.objectKey(key)
	_, err := u.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete archive object (key: %s): %w", objectKey, err)
	}
	return nil
}

func (u *s3Archive) GetPublicURL(key string) string {
	return publicURL(u.publicBaseURL, u.objectKey(key))
}

// publicURL joins a base URL and an object key, or returns "" when either
// is missing or the base does not parse.
func publicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	pathURL, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(pathURL).String()
}
