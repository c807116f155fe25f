// Package seed 为开发环境生成演示数据
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPassword 演示账号的统一密码
const DefaultPassword = "password123"

var genres = []string{"drama", "comedy", "action", "sci-fi", "thriller", "romance", "animation", "documentary"}

// Seeder 演示数据生成器
type Seeder struct {
	db    *gorm.DB
	repos *repository.Repositories
}

// NewSeeder 创建生成器
func NewSeeder(db *gorm.DB) *Seeder {
	// Seed 只在随机源非法时返回错误
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, repos: repository.NewRepositories(db)}
}

// SeedUsers 创建 count 个普通用户，用户名和邮箱冲突时重新生成
func (s *Seeder) SeedUsers(count int) ([]*model.User, error) {
	users := make([]*model.User, 0, count)
	for i := 0; i < count; i++ {
		username, email, err := s.uniqueIdentity()
		if err != nil {
			return nil, err
		}

		user := &model.User{
			Email:     email,
			Username:  username,
			AvatarURL: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}
		if err := s.repos.User.Create(user, DefaultPassword); err != nil {
			return nil, fmt.Errorf("创建用户失败: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("已生成用户", zap.Int("count", len(users)))
	return users, nil
}

func (s *Seeder) uniqueIdentity() (string, string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		username := gofakeit.Username()
		email := strings.ToLower(gofakeit.Email())
		if len(username) > 32 {
			username = username[:32]
		}

		var n int64
		if err := s.db.Model(&model.User{}).
			Where("username = ? OR email = ?", username, email).
			Count(&n).Error; err != nil {
			return "", "", err
		}
		if n == 0 {
			return username, email, nil
		}
	}
	return "", "", fmt.Errorf("无法生成不重复的用户")
}

// SeedMovies 创建 count 部影片，剧集类型附带 episodes 个分集
func (s *Seeder) SeedMovies(count, episodes int) ([]*model.Movie, error) {
	movies := make([]*model.Movie, 0, count)
	for i := 0; i < count; i++ {
		title := gofakeit.MovieName()
		movie := &model.Movie{
			Title:       title,
			Slug:        fmt.Sprintf("%s-%s", utils.Slugify(title), gofakeit.UUID()[:8]),
			Description: gofakeit.HipsterSentence(),
			ReleaseYear: gofakeit.DateRange(time.Now().AddDate(-40, 0, 0), time.Now()).Year(),
			Genres:      pickGenres(),
			PosterURL:   fmt.Sprintf("https://picsum.photos/seed/%s/300/450", gofakeit.Word()),
			Type:        model.MovieTypeMovie,
		}
		if episodes > 0 && rand.Intn(2) == 0 {
			movie.Type = model.MovieTypeSeries
		}
		if err := s.repos.Movie.Create(movie); err != nil {
			return nil, fmt.Errorf("创建影片失败: %w", err)
		}

		if movie.Type == model.MovieTypeSeries {
			for n := 1; n <= episodes; n++ {
				ep := &model.Episode{
					MovieID:     movie.ID,
					Season:      1,
					Number:      n,
					Title:       fmt.Sprintf("第 %d 集", n),
					Description: gofakeit.HipsterSentence(),
					DurationSec: 1200 + rand.Intn(1800),
				}
				if err := s.repos.Episode.Create(ep); err != nil {
					return nil, fmt.Errorf("创建分集失败: %w", err)
				}
			}
		}
		movies = append(movies, movie)
	}

	logger.Log.Info("已生成影片", zap.Int("count", len(movies)), zap.Int("episodes_per_series", episodes))
	return movies, nil
}

// SeedRatings 让每个用户随机给部分影片打分
func (s *Seeder) SeedRatings(users []*model.User, movies []*model.Movie) (int, error) {
	if len(movies) == 0 {
		return 0, nil
	}
	created := 0
	for _, u := range users {
		for _, idx := range rand.Perm(len(movies))[:rand.Intn(len(movies))+1] {
			rating := &model.Rating{UserID: u.ID, MovieID: movies[idx].ID, Score: rand.Intn(5) + 1}
			if _, err := s.repos.Rating.Upsert(rating); err != nil {
				return created, fmt.Errorf("创建评分失败: %w", err)
			}
			created++
		}
	}
	logger.Log.Info("已生成评分", zap.Int("count", created))
	return created, nil
}

func pickGenres() string {
	n := rand.Intn(3) + 1
	picked := make([]string, 0, n)
	for _, i := range rand.Perm(len(genres))[:n] {
		picked = append(picked, genres[i])
	}
	return strings.Join(picked, ",")
}
