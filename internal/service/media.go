package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/metrics"
	"github.com/user/reelverse/internal/storage"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// ThumbnailWidth 封面缩略图宽度
const ThumbnailWidth = 300

// DefaultMaxUploadSize 单个文件大小上限
const DefaultMaxUploadSize = 10 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MediaService 图片上传
type MediaService struct {
	store   storage.Storage
	maxSize int64
	log     *zap.Logger
}

func NewMediaService(store storage.Storage, maxSize int64) *MediaService {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &MediaService{store: store, maxSize: maxSize, log: logger.Named("media")}
}

// StoredImage 已保存的图片
type StoredImage struct {
	URL          string
	ThumbnailURL string
	Width        int
	Height       int
}

// ValidateImage 校验扩展名与大小
func (s *MediaService) ValidateImage(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return utils.NewError(utils.ErrInvalid, fmt.Sprintf("不支持的图片格式: %s", fh.Filename))
	}
	if fh.Size > s.maxSize {
		return utils.NewError(utils.ErrInvalid, fmt.Sprintf("图片不能超过 %d MB: %s", s.maxSize>>20, fh.Filename))
	}
	return nil
}

// readImage 读取并解码上传的图片
func (s *MediaService) readImage(fh *multipart.FileHeader) ([]byte, image.Image, error) {
	if err := s.ValidateImage(fh); err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return nil, nil, err
	}
	if int64(len(data)) > s.maxSize {
		return nil, nil, utils.NewError(utils.ErrInvalid, fmt.Sprintf("图片不能超过 %d MB: %s", s.maxSize>>20, fh.Filename))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, nil, utils.NewError(utils.ErrInvalid, fmt.Sprintf("无法识别的图片: %s", fh.Filename))
	}
	return data, img, nil
}

func newKey(prefix, ext string) string {
	now := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%s%s", prefix, now.Year(), now.Month(), uuid.New().String(), ext)
}

// SaveCover 保存封面原图并生成 300px 宽的 JPEG 缩略图
func (s *MediaService) SaveCover(ctx context.Context, fh *multipart.FileHeader) (*StoredImage, error) {
	data, img, err := s.readImage(fh)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key := newKey("covers", ext)

	orig, err := s.store.Put(ctx, key, data, storage.ContentType(ext))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	thumbKey := strings.TrimSuffix(key, ext) + "_thumb.jpg"
	th, err := s.store.Put(ctx, thumbKey, buf.Bytes(), "image/jpeg")
	if err != nil {
		s.Remove(ctx, orig.URL)
		return nil, err
	}

	metrics.Get().UploadsTotal.WithLabelValues("cover", s.store.Driver()).Inc()
	bounds := img.Bounds()
	return &StoredImage{
		URL:          orig.URL,
		ThumbnailURL: th.URL,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
	}, nil
}

// SavePage 保存一张漫画页面
func (s *MediaService) SavePage(ctx context.Context, comicID uint, fh *multipart.FileHeader) (*StoredImage, error) {
	data, img, err := s.readImage(fh)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	res, err := s.store.Put(ctx, newKey(fmt.Sprintf("comics/%d", comicID), ext), data, storage.ContentType(ext))
	if err != nil {
		return nil, err
	}

	metrics.Get().UploadsTotal.WithLabelValues("page", s.store.Driver()).Inc()
	bounds := img.Bounds()
	return &StoredImage{URL: res.URL, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Remove 删除已保存的文件，失败只记录日志
func (s *MediaService) Remove(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		key, ok := s.store.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn("删除文件失败", zap.String("key", key), zap.Error(err))
		}
	}
}
