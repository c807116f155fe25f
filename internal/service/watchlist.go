package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
)

// WatchlistService 片单
type WatchlistService struct {
	repos        *repository.Repositories
	gamification *GamificationService
}

func NewWatchlistService(repos *repository.Repositories, gamification *GamificationService) *WatchlistService {
	return &WatchlistService{repos: repos, gamification: gamification}
}

func cleanWatchlistName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > 100 {
		return "", utils.NewError(utils.ErrInvalid, "片单名称应在 1-100 个字符之间")
	}
	return name, nil
}

// owned 获取片单并校验归属，他人的私有片单按不存在处理
func (s *WatchlistService) owned(userID, id uint) (*model.Watchlist, error) {
	w, err := s.repos.Watchlist.FindByID(id)
	if err != nil {
		return nil, err
	}
	if w == nil || (!w.IsPublic && w.UserID != userID) {
		return nil, utils.NewError(utils.ErrNotFound, "片单不存在")
	}
	if w.UserID != userID {
		return nil, utils.NewError(utils.ErrForbidden, "只能修改自己的片单")
	}
	return w, nil
}

// List 用户的全部片单
func (s *WatchlistService) List(userID uint) ([]*model.Watchlist, error) {
	return s.repos.Watchlist.ListByUser(userID)
}

// Create 创建片单
func (s *WatchlistService) Create(userID uint, name string, public bool) (*model.Watchlist, error) {
	name, err := cleanWatchlistName(name)
	if err != nil {
		return nil, err
	}
	w := &model.Watchlist{UserID: userID, Name: name, IsPublic: public}
	if err := s.repos.Watchlist.Create(w); err != nil {
		return nil, err
	}
	w.Movies = []model.Movie{}
	return w, nil
}

// Get 获取片单及影片，私有片单只有本人可见
func (s *WatchlistService) Get(viewerID, id uint) (*model.Watchlist, error) {
	w, err := s.repos.Watchlist.FindWithMovies(id)
	if err != nil {
		return nil, err
	}
	if w == nil || (!w.IsPublic && w.UserID != viewerID) {
		return nil, utils.NewError(utils.ErrNotFound, "片单不存在")
	}
	return w, nil
}

// Update 修改名称和公开状态，name 为空时保持不变
func (s *WatchlistService) Update(userID, id uint, name string, public *bool) (*model.Watchlist, error) {
	w, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		if w.Name, err = cleanWatchlistName(name); err != nil {
			return nil, err
		}
	}
	if public != nil {
		w.IsPublic = *public
	}
	if err := s.repos.Watchlist.Update(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Delete 删除片单
func (s *WatchlistService) Delete(userID, id uint) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	return s.repos.Watchlist.Delete(id)
}

// AddMovie 向片单添加影片，已存在时返回冲突
func (s *WatchlistService) AddMovie(ctx context.Context, userID, id, movieID uint) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	movie, err := s.repos.Movie.FindByID(movieID)
	if err != nil {
		return err
	}
	if movie == nil {
		return utils.NewError(utils.ErrNotFound, "影片不存在")
	}
	if err := s.repos.Watchlist.AddMovie(id, movieID); err != nil {
		return err
	}
	s.gamification.OnAction(ctx, userID, model.ActionWatchlist, movieID)
	return nil
}

// RemoveMovie 从片单移除影片
func (s *WatchlistService) RemoveMovie(userID, id, movieID uint) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	return s.repos.Watchlist.RemoveMovie(id, movieID)
}
