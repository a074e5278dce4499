package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// StorageService 文件对象存储服务，基于MinIO。
// 未配置Endpoint时客户端为nil，此时只记录路径不实际存取。
type StorageService struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewStorageService 创建文件存储服务
func NewStorageService(client *minio.Client, bucket string, logger *zap.Logger) *StorageService {
	return &StorageService{client: client, bucket: bucket, logger: logger}
}

// Save 保存文件，返回对象路径
func (s *StorageService) Save(ctx context.Context, file *FileUpload) (string, error) {
	objectName := fmt.Sprintf("attachments/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(file.Filename))

	if s.client != nil {
		_, err := s.client.PutObject(ctx, s.bucket, objectName, file.Reader, file.Size, minio.PutObjectOptions{
			ContentType: file.ContentType,
		})
		if err != nil {
			return "", fmt.Errorf("put object: %w", err)
		}
	}

	return objectName, nil
}

// Delete 删除文件，尽力而为：失败只告警
func (s *StorageService) Delete(ctx context.Context, path string) bool {
	if s.client == nil || path == "" {
		return true
	}

	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Warn("file delete failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// PublicURL 获取文件的访问URL
func (s *StorageService) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return "/files/" + path
}
