// Package testutil 提供测试用的内存数据库与数据构造
package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 创建已迁移的 SQLite 内存库，测试结束自动关闭
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库只存在于单个连接中
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser 创建用户并赋予角色，密码固定为 password123
func CreateUser(t testing.TB, db *gorm.DB, username string, roles ...string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}
	var rs []model.Role
	require.NoError(t, db.Where("name IN ?", roles).Find(&rs).Error)

	user := &model.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: string(hash),
		Roles:        rs,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateMovie 创建影片
func CreateMovie(t testing.TB, db *gorm.DB, title string) *model.Movie {
	t.Helper()
	movie := &model.Movie{Title: title, Slug: title, Type: model.MovieTypeSeries, Genres: "drama"}
	require.NoError(t, db.Create(movie).Error)
	return movie
}

// CreateEpisode 创建分集
func CreateEpisode(t testing.TB, db *gorm.DB, movieID uint, number int) *model.Episode {
	t.Helper()
	ep := &model.Episode{MovieID: movieID, Season: 1, Number: number, Title: fmt.Sprintf("EP%d", number)}
	require.NoError(t, db.Create(ep).Error)
	return ep
}

// CreateComic 创建漫画
func CreateComic(t testing.TB, db *gorm.DB, title string) *model.Comic {
	t.Helper()
	comic := &model.Comic{Title: title, Slug: title, Status: "ongoing"}
	require.NoError(t, db.Create(comic).Error)
	return comic
}
