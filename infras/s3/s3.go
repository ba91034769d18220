package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"berth/config"
	"berth/infras/otel"
	"berth/shared/constant"
)

const (
	otelAttrObjectName = "object_name"
	otelAttrBucket     = "bucket"
)

// S3 stores opaque payloads, used here to archive raw scheduling-provider
// events for audit.
type S3 interface {
	UploadBytes(ctx context.Context, bucketName, directory, objectName, contentType string, data []byte) (url string, err error)
	DeleteObject(ctx context.Context, bucketName, directory, objectName string) error
}

type s3Impl struct {
	Client *s3.Client
	Config *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) S3 {
	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(cfg.External.S3.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.External.S3.AccessKey,
			cfg.External.S3.SecretKey,
			constant.Empty,
		)),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS configuration")
	}

	return &s3Impl{
		Client: s3.NewFromConfig(awsCfg),
		Config: cfg,
		otel:   otl,
	}
}

func (svc *s3Impl) UploadBytes(ctx context.Context, bucketName, directory, objectName, contentType string, data []byte) (url string, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".UploadBytes")
	defer scope.End()
	defer scope.TraceIfError(err)

	if bucketName == "" {
		bucketName = svc.Config.External.S3.AuditBucket
	}

	key := path.Join(directory, objectName)

	scope.SetAttributes(map[string]any{
		otelAttrObjectName: key,
		otelAttrBucket:     bucketName,
	})

	_, err = svc.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", bucketName).Str("key", key).Msg("failed to upload object")

		return constant.Empty, fmt.Errorf("failed to upload object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", bucketName, key), nil
}

func (svc *s3Impl) DeleteObject(ctx context.Context, bucketName, directory, objectName string) (err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".DeleteObject")
	defer scope.End()
	defer scope.TraceIfError(err)

	if bucketName == "" {
		bucketName = svc.Config.External.S3.AuditBucket
	}

	key := path.Join(directory, objectName)

	_, err = svc.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("bucket", bucketName).Str("key", key).Msg("failed to delete object")

		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}
