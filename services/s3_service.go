package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"go.uber.org/zap"
)

// ObjectStorage stores generated files and hands out temporary download links
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// S3Service stores objects in an S3 bucket
type S3Service struct {
	client *s3.Client
	bucket string
}

var storageInstance ObjectStorage

// InitS3Service initializes the S3 service with AWS credentials
func InitS3Service(ctx context.Context, region, accessKeyID, secretAccessKey, bucket string) (ObjectStorage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	storageInstance = &S3Service{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
	}
	return storageInstance, nil
}

// GetStorage returns the initialized storage instance
func GetStorage() ObjectStorage {
	return storageInstance
}

// SetStorage sets the storage instance (primarily for testing)
func SetStorage(storage ObjectStorage) {
	storageInstance = storage
}

// PutObject uploads body under key
func (s *S3Service) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// PresignGet generates a presigned URL for a private object, valid for ttl
func (s *S3Service) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	logger.Named("storage").Debug("generated presigned URL", zap.String("key", key))
	return request.URL, nil
}
