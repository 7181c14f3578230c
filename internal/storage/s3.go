package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresignTTL срок жизни ссылки на аватар
const PresignTTL = time.Hour

type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Region         string
	Bucket         string
}

// AvatarStorage хранит аватары в S3-совместимом хранилище (MinIO)
type AvatarStorage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	logger    *zap.Logger
}

func newClient(ctx context.Context, cfg Config, endpoint string) (*s3.Client, error) {
	s3Cfg, err := s3Config.LoadDefaultConfig(ctx,
		s3Config.WithRegion(cfg.Region),
		s3Config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

// New создаёт клиент; ссылки подписываются на публичный адрес хранилища
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*AvatarStorage, error) {
	client, err := newClient(ctx, cfg, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	public, err := newClient(ctx, cfg, cfg.PublicEndpoint)
	if err != nil {
		return nil, fmt.Errorf("s3 public client: %w", err)
	}

	return &AvatarStorage{
		client:    client,
		presigner: s3.NewPresignClient(public),
		bucket:    cfg.Bucket,
		logger:    logger,
	}, nil
}

// EnsureBucket создаёт бакет, если его ещё нет
func (s *AvatarStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Upload сохраняет файл под ключом "<name>-<uuid>" и возвращает ключ
func (s *AvatarStorage) Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s-%s", name, uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return key, nil
}

// PresignGet возвращает временную ссылку на объект
func (s *AvatarStorage) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Delete удаляет объект
func (s *AvatarStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
