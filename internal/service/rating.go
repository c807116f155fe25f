package service

import (
	"context"
	"strings"

	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
)

// MaxReviewLength 短评最大字符数
const MaxReviewLength = 2000

// RatingService 评分与短评
type RatingService struct {
	repos        *repository.Repositories
	catalog      *CatalogService
	gamification *GamificationService
}

func NewRatingService(repos *repository.Repositories, catalog *CatalogService, gamification *GamificationService) *RatingService {
	return &RatingService{repos: repos, catalog: catalog, gamification: gamification}
}

// RatingPage 影片的评分列表与汇总
type RatingPage struct {
	Items   []*model.Rating     `json:"items"`
	Summary model.RatingSummary `json:"summary"`
}

func (s *RatingService) requireMovie(movieID uint) error {
	movie, err := s.repos.Movie.FindByID(movieID)
	if err != nil {
		return err
	}
	if movie == nil {
		return utils.NewError(utils.ErrNotFound, "影片不存在")
	}
	return nil
}

// List 分页获取影片评分
func (s *RatingService) List(movieID uint, limit, offset int) (*RatingPage, error) {
	if err := s.requireMovie(movieID); err != nil {
		return nil, err
	}
	items, err := s.repos.Rating.ListByMovie(movieID, limit, offset)
	if err != nil {
		return nil, err
	}
	summary, err := s.repos.Rating.Summary(movieID)
	if err != nil {
		return nil, err
	}
	return &RatingPage{Items: items, Summary: summary}, nil
}

// Rate 创建或更新评分，同一影片第一次评分时记分
func (s *RatingService) Rate(ctx context.Context, userID, movieID uint, score int, review string) (*model.Rating, error) {
	if score < 1 || score > 5 {
		return nil, utils.NewError(utils.ErrInvalid, "评分必须在 1 到 5 之间")
	}
	review = utils.PlainText(review)
	if len([]rune(strings.TrimSpace(review))) > MaxReviewLength {
		return nil, utils.NewError(utils.ErrInvalid, "短评不能超过 2000 字")
	}
	if err := s.requireMovie(movieID); err != nil {
		return nil, err
	}

	rating, err := s.repos.Rating.Upsert(&model.Rating{
		UserID:  userID,
		MovieID: movieID,
		Score:   score,
		Review:  review,
	})
	if err != nil {
		return nil, err
	}
	s.catalog.InvalidateMovie(movieID)
	s.gamification.OnAction(ctx, userID, model.ActionRating, movieID)
	return rating, nil
}

// Remove 删除自己的评分
func (s *RatingService) Remove(userID, movieID uint) error {
	if err := s.repos.Rating.Delete(userID, movieID); err != nil {
		return err
	}
	s.catalog.InvalidateMovie(movieID)
	return nil
}
