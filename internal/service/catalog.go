package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/metrics"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	detailCacheTTL  = 5 * time.Minute
	searchCacheSize = 512
	searchCacheTTL  = 2 * time.Minute
)

// MovieList 一页影片
type MovieList struct {
	Items []*model.Movie
	Total int64
}

// CatalogService 影片、分集与漫画目录
type CatalogService struct {
	repos  *repository.Repositories
	media  *MediaService
	search *utils.SearchCache[*MovieList]
	sf     singleflight.Group
	log    *zap.Logger
}

// NewCatalogService 创建目录服务
func NewCatalogService(repos *repository.Repositories, media *MediaService) *CatalogService {
	return &CatalogService{
		repos:  repos,
		media:  media,
		search: utils.NewSearchCache[*MovieList](searchCacheSize, searchCacheTTL),
		log:    logger.Named("catalog"),
	}
}

func movieKey(id uint) string { return fmt.Sprintf("movie:%d", id) }

func comicKey(id uint) string { return fmt.Sprintf("comic:%d", id) }

func searchKey(f repository.MovieFilter) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d",
		strings.ToLower(strings.TrimSpace(f.Query)), strings.ToLower(f.Genre), f.Type, f.Limit, f.Offset)
}

// ListMovies 分页查询影片，相同条件的结果短时间缓存
func (s *CatalogService) ListMovies(f repository.MovieFilter) (*MovieList, error) {
	key := searchKey(f)
	if cached, ok := s.search.Get(key); ok {
		metrics.CacheLookup("movie_search", true)
		return cached, nil
	}
	metrics.CacheLookup("movie_search", false)

	items, total, err := s.repos.Movie.List(f)
	if err != nil {
		return nil, err
	}
	list := &MovieList{Items: items, Total: total}
	s.search.Set(key, list)
	return list, nil
}

// GetMovie 获取影片及其分集，并发请求同一部影片只查一次库
func (s *CatalogService) GetMovie(ctx context.Context, id uint) (*model.Movie, error) {
	key := movieKey(id)
	if cached, ok := utils.CacheGet(key); ok {
		metrics.CacheLookup("movie_detail", true)
		return cached.(*model.Movie), nil
	}
	metrics.CacheLookup("movie_detail", false)

	val, err, _ := s.sf.Do(key, func() (interface{}, error) {
		movie, err := s.repos.Movie.FindWithEpisodes(id)
		if err != nil {
			return nil, err
		}
		if movie == nil {
			return nil, utils.NewError(utils.ErrNotFound, "影片不存在")
		}
		utils.CacheSet(key, movie, detailCacheTTL)
		return movie, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*model.Movie), nil
}

// InvalidateMovie 影片或其分集、评分变化后清除缓存
func (s *CatalogService) InvalidateMovie(id uint) {
	utils.CacheDelete(movieKey(id))
	s.search.Clear()
}

// InvalidateAllMovies 批量数据变化（如删除用户的评分）后清除全部影片缓存
func (s *CatalogService) InvalidateAllMovies() {
	utils.CacheDeletePrefix("movie:")
	s.search.Clear()
}

func (s *CatalogService) prepareMovie(m *model.Movie) error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return utils.NewError(utils.ErrInvalid, "标题不能为空")
	}
	if m.Slug == "" {
		m.Slug = utils.Slugify(m.Title)
	} else {
		m.Slug = utils.Slugify(m.Slug)
	}
	if m.Type == "" {
		m.Type = model.MovieTypeMovie
	}
	if m.Type != model.MovieTypeMovie && m.Type != model.MovieTypeSeries {
		return utils.NewError(utils.ErrInvalid, "影片类型只能是 movie 或 series")
	}
	m.Genres = utils.NormalizeGenres(m.Genres)
	return nil
}

// CreateMovie 创建影片，slug 重复返回冲突
func (s *CatalogService) CreateMovie(m *model.Movie) error {
	if err := s.prepareMovie(m); err != nil {
		return err
	}
	if err := s.repos.Movie.Create(m); err != nil {
		return err
	}
	s.search.Clear()
	return nil
}

// UpdateMovie 更新影片
func (s *CatalogService) UpdateMovie(m *model.Movie) error {
	existing, err := s.repos.Movie.FindByID(m.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return utils.NewError(utils.ErrNotFound, "影片不存在")
	}
	if err := s.prepareMovie(m); err != nil {
		return err
	}
	if err := s.repos.Movie.Update(m); err != nil {
		return err
	}
	s.InvalidateMovie(m.ID)
	return nil
}

// DeleteMovie 删除影片及其分集、评论、评分、观看记录和片单关联
func (s *CatalogService) DeleteMovie(id uint) error {
	if err := s.repos.Movie.Delete(id); err != nil {
		return err
	}
	s.InvalidateMovie(id)
	return nil
}

// ListEpisodes 影片的全部分集
func (s *CatalogService) ListEpisodes(movieID uint) ([]*model.Episode, error) {
	movie, err := s.repos.Movie.FindByID(movieID)
	if err != nil {
		return nil, err
	}
	if movie == nil {
		return nil, utils.NewError(utils.ErrNotFound, "影片不存在")
	}
	return s.repos.Episode.ListByMovie(movieID)
}

// GetEpisode 获取分集
func (s *CatalogService) GetEpisode(id uint) (*model.Episode, error) {
	ep, err := s.repos.Episode.FindByID(id)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, utils.NewError(utils.ErrNotFound, "分集不存在")
	}
	return ep, nil
}

// CreateEpisode 为影片添加分集，同季同集号重复返回冲突
func (s *CatalogService) CreateEpisode(ep *model.Episode) error {
	movie, err := s.repos.Movie.FindByID(ep.MovieID)
	if err != nil {
		return err
	}
	if movie == nil {
		return utils.NewError(utils.ErrNotFound, "影片不存在")
	}
	if ep.Season == 0 {
		ep.Season = 1
	}
	if err := s.repos.Episode.Create(ep); err != nil {
		return err
	}
	s.InvalidateMovie(ep.MovieID)
	return nil
}

// UpdateEpisode 更新分集
func (s *CatalogService) UpdateEpisode(ep *model.Episode) error {
	existing, err := s.GetEpisode(ep.ID)
	if err != nil {
		return err
	}
	ep.MovieID = existing.MovieID
	if ep.Season == 0 {
		ep.Season = 1
	}
	if err := s.repos.Episode.Update(ep); err != nil {
		return err
	}
	s.InvalidateMovie(ep.MovieID)
	return nil
}

// DeleteEpisode 删除分集及其评论和观看记录
func (s *CatalogService) DeleteEpisode(id uint) error {
	ep, err := s.GetEpisode(id)
	if err != nil {
		return err
	}
	if err := s.repos.Episode.Delete(id); err != nil {
		return err
	}
	s.InvalidateMovie(ep.MovieID)
	return nil
}

// ListComics 分页查询漫画
func (s *CatalogService) ListComics(query, genre string, limit, offset int) ([]*model.Comic, int64, error) {
	return s.repos.Comic.List(query, genre, limit, offset)
}

// GetComic 获取漫画及全部页面
func (s *CatalogService) GetComic(id uint) (*model.Comic, error) {
	key := comicKey(id)
	if cached, ok := utils.CacheGet(key); ok {
		metrics.CacheLookup("comic_detail", true)
		return cached.(*model.Comic), nil
	}
	metrics.CacheLookup("comic_detail", false)

	comic, err := s.repos.Comic.FindWithPages(id)
	if err != nil {
		return nil, err
	}
	if comic == nil {
		return nil, utils.NewError(utils.ErrNotFound, "漫画不存在")
	}
	utils.CacheSet(key, comic, detailCacheTTL)
	return comic, nil
}

func (s *CatalogService) prepareComic(c *model.Comic) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return utils.NewError(utils.ErrInvalid, "标题不能为空")
	}
	if c.Slug == "" {
		c.Slug = utils.Slugify(c.Title)
	} else {
		c.Slug = utils.Slugify(c.Slug)
	}
	if c.Status == "" {
		c.Status = model.ComicStatusOngoing
	}
	if c.Status != model.ComicStatusOngoing && c.Status != model.ComicStatusCompleted {
		return utils.NewError(utils.ErrInvalid, "连载状态只能是 ongoing 或 completed")
	}
	c.Genres = utils.NormalizeGenres(c.Genres)
	return nil
}

// CreateComic 创建漫画，cover 不为空时保存封面和缩略图
func (s *CatalogService) CreateComic(ctx context.Context, c *model.Comic, cover *multipart.FileHeader) error {
	if err := s.prepareComic(c); err != nil {
		return err
	}
	if cover != nil {
		img, err := s.media.SaveCover(ctx, cover)
		if err != nil {
			return err
		}
		c.CoverURL, c.ThumbnailURL = img.URL, img.ThumbnailURL
	}
	if err := s.repos.Comic.Create(c); err != nil {
		s.media.Remove(ctx, c.CoverURL, c.ThumbnailURL)
		return err
	}
	return nil
}

// UpdateComic 更新漫画，上传新封面时替换旧文件
func (s *CatalogService) UpdateComic(ctx context.Context, c *model.Comic, cover *multipart.FileHeader) error {
	existing, err := s.repos.Comic.FindByID(c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return utils.NewError(utils.ErrNotFound, "漫画不存在")
	}
	if err := s.prepareComic(c); err != nil {
		return err
	}

	c.CoverURL, c.ThumbnailURL = existing.CoverURL, existing.ThumbnailURL
	if cover != nil {
		img, err := s.media.SaveCover(ctx, cover)
		if err != nil {
			return err
		}
		c.CoverURL, c.ThumbnailURL = img.URL, img.ThumbnailURL
	}
	if err := s.repos.Comic.Update(c); err != nil {
		if cover != nil {
			s.media.Remove(ctx, c.CoverURL, c.ThumbnailURL)
		}
		return err
	}
	if cover != nil {
		s.media.Remove(ctx, existing.CoverURL, existing.ThumbnailURL)
	}
	utils.CacheDelete(comicKey(c.ID))
	return nil
}

// DeleteComic 删除漫画、页面、评论及其文件
func (s *CatalogService) DeleteComic(ctx context.Context, id uint) error {
	comic, err := s.repos.Comic.FindWithPages(id)
	if err != nil {
		return err
	}
	if comic == nil {
		return utils.NewError(utils.ErrNotFound, "漫画不存在")
	}
	if err := s.repos.Comic.Delete(id); err != nil {
		return err
	}
	utils.CacheDelete(comicKey(id))

	urls := []string{comic.CoverURL, comic.ThumbnailURL}
	for _, p := range comic.Pages {
		urls = append(urls, p.ImageURL)
	}
	s.media.Remove(ctx, urls...)
	return nil
}

// AddPages 为章节追加页面，页码接在当前最后一页之后
func (s *CatalogService) AddPages(ctx context.Context, comicID uint, chapter int, files []*multipart.FileHeader) ([]*model.ComicPage, error) {
	if chapter < 1 {
		return nil, utils.NewError(utils.ErrInvalid, "章节必须大于 0")
	}
	if len(files) == 0 {
		return nil, utils.NewError(utils.ErrInvalid, "请上传至少一张页面")
	}
	comic, err := s.repos.Comic.FindByID(comicID)
	if err != nil {
		return nil, err
	}
	if comic == nil {
		return nil, utils.NewError(utils.ErrNotFound, "漫画不存在")
	}
	for _, fh := range files {
		if err := s.media.ValidateImage(fh); err != nil {
			return nil, err
		}
	}

	last, err := s.repos.Comic.LastPageNumber(comicID, chapter)
	if err != nil {
		return nil, err
	}

	pages := make([]*model.ComicPage, 0, len(files))
	var saved []string
	for i, fh := range files {
		img, err := s.media.SavePage(ctx, comicID, fh)
		if err != nil {
			s.media.Remove(ctx, saved...)
			return nil, err
		}
		saved = append(saved, img.URL)
		pages = append(pages, &model.ComicPage{
			ComicID:  comicID,
			Chapter:  chapter,
			Number:   last + i + 1,
			ImageURL: img.URL,
			Width:    img.Width,
			Height:   img.Height,
		})
	}

	if err := s.repos.Comic.AddPages(pages); err != nil {
		s.media.Remove(ctx, saved...)
		return nil, err
	}
	utils.CacheDelete(comicKey(comicID))
	s.log.Info("新增漫画页面", zap.Uint("comic_id", comicID), zap.Int("chapter", chapter), zap.Int("count", len(pages)))
	return pages, nil
}

// DeletePage 删除一张页面
func (s *CatalogService) DeletePage(ctx context.Context, comicID, pageID uint) error {
	page, err := s.repos.Comic.FindPage(comicID, pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return utils.NewError(utils.ErrNotFound, "页面不存在")
	}
	if err := s.repos.Comic.DeletePage(pageID); err != nil {
		return err
	}
	utils.CacheDelete(comicKey(comicID))
	s.media.Remove(ctx, page.ImageURL)
	return nil
}

// PurgeCaches 清理过期的缓存项
func (s *CatalogService) PurgeCaches() int {
	utils.Cache.DeleteExpired()
	return s.search.PurgeExpired()
}
