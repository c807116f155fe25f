// Package storage 封面与漫画页面的文件存储
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/reelverse/internal/config"
)

// UploadResult 上传结果
type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Storage 文件存储后端
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL 将 Put 返回的 URL 还原为 key，不属于该存储时返回 false
	KeyFromURL(url string) (string, bool)
	Driver() string
}

// New 根据配置创建存储后端
func New(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.Dir, cfg.BaseURL)
	case "s3":
		return NewS3Storage(ctx, cfg.Region, cfg.Bucket, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.Driver)
	}
}

// LocalStorage 本地磁盘存储，由 HTTP 服务以静态文件提供
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStorage) Driver() string { return "local" }

// Dir 上传根目录
func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("非法的文件路径: %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	return &UploadResult{
		Key:  key,
		URL:  s.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(key), "/"),
		Size: int64(len(data)),
	}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStorage) KeyFromURL(url string) (string, bool) {
	return trimBase(s.baseURL, url)
}

func trimBase(baseURL, url string) (string, bool) {
	prefix := baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

// ContentType 图片扩展名对应的 MIME 类型
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
