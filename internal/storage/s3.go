package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage AWS S3 存储
type S3Storage struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// NewS3Storage 创建 S3 存储，凭证来自默认凭证链
func NewS3Storage(ctx context.Context, region, bucket, baseURL string) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("未配置 S3_BUCKET")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *S3Storage) Driver() string { return "s3" }

func (s *S3Storage) Put(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=86400"),
	})
	if err != nil {
		return nil, fmt.Errorf("上传到 S3 失败: %w", err)
	}
	return &UploadResult{
		Key:  key,
		URL:  s.baseURL + "/" + key,
		Size: int64(len(data)),
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("从 S3 删除失败: %w", err)
	}
	return nil
}

func (s *S3Storage) KeyFromURL(url string) (string, bool) {
	return trimBase(s.baseURL, url)
}

// CheckBucketAccess 检查桶是否可访问
func (s *S3Storage) CheckBucketAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("无法访问 S3 桶 %s: %w", s.bucket, err)
	}
	return nil
}
