package minio

import (
	"Vista/internal/api/config"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Storage 面向业务层的对象存储
type Storage struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
	publicSSL      bool
}

// NewStorage 基于全局客户端构造
func NewStorage(cfg config.MinIOConfig) *Storage {
	endpoint := cfg.ExternalEndpoint
	useSSL := cfg.ExternalUseSSL
	if endpoint == "" {
		endpoint = cfg.InternalEndpoint
		useSSL = cfg.InternalUseSSL
	}
	return &Storage{
		client:         Client,
		bucket:         Bucket,
		publicEndpoint: endpoint,
		publicSSL:      useSSL,
	}
}

// Upload 上传文件，返回对象 key
func (s *Storage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return uploadInfo.Key, nil
}

// Delete 删除对象，key 为空时忽略
func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if s.client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// PublicURL 获取对象的公共访问URL
func (s *Storage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	protocol := "http"
	if s.publicSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.publicEndpoint, s.bucket, strings.TrimPrefix(key, "/"))
}
