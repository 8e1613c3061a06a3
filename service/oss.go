package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"WenyanScene-server/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioMirror 将服务商生成的图片/视频转存到 MinIO，返回预签名地址
type MinioMirror struct {
	client     *minio.Client
	bucket     string
	expiry     time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

func NewMinioMirror(cfg MinioConfig, log *logger.Logger) (*MinioMirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化失败: %w", err)
	}
	return &MinioMirror{
		client:     client,
		bucket:     cfg.Bucket,
		expiry:     72 * time.Hour,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		log:        log,
	}, nil
}

// Mirror 下载 sourceURL 并上传为 objectName
func (m *MinioMirror) Mirror(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}

	if err := m.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err = m.client.PutObject(ctx, m.bucket, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentTypeFor(objectName),
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}

	presigned, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, m.expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("生成签名 URL 失败: %w", err)
	}
	m.log.Info("media mirrored", "object", objectName)
	return presigned.String(), nil
}

func (m *MinioMirror) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建 Bucket 失败: %w", err)
	}
	m.log.Info("bucket created", "bucket", m.bucket)
	return nil
}

func contentTypeFor(objectName string) string {
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
