package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/reelverse/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(databaseURL string, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate 自动迁移表结构并写入内置角色与徽章
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Watchlist{}, "Movies", &model.WatchlistMovie{}); err != nil {
		return fmt.Errorf("设置片单关联表失败: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Movie{},
		&model.Episode{},
		&model.Comic{},
		&model.ComicPage{},
		&model.Comment{},
		&model.Rating{},
		&model.Watchlist{},
		&model.WatchlistMovie{},
		&model.WatchHistory{},
		&model.Badge{},
		&model.UserBadge{},
		&model.PointEvent{},
	); err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}

	for _, name := range model.DefaultRoles {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Role{Name: name}).Error; err != nil {
			return fmt.Errorf("写入角色 %s 失败: %w", name, err)
		}
	}

	badges := model.DefaultBadges()
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&badges).Error; err != nil {
		return fmt.Errorf("写入徽章失败: %w", err)
	}

	return nil
}

// Repositories 仓库集合
type Repositories struct {
	DB           *gorm.DB
	User         *UserRepository
	Movie        *MovieRepository
	Episode      *EpisodeRepository
	Comic        *ComicRepository
	Comment      *CommentRepository
	Rating       *RatingRepository
	Watchlist    *WatchlistRepository
	History      *HistoryRepository
	Gamification *GamificationRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:           db,
		User:         NewUserRepository(db),
		Movie:        NewMovieRepository(db),
		Episode:      NewEpisodeRepository(db),
		Comic:        NewComicRepository(db),
		Comment:      NewCommentRepository(db),
		Rating:       NewRatingRepository(db),
		Watchlist:    NewWatchlistRepository(db),
		History:      NewHistoryRepository(db),
		Gamification: NewGamificationRepository(db),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 构造大小写无关的子串匹配参数，通配符按字面匹配
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// genreMatch 按逗号分隔的完整类型名匹配
func genreMatch(db *gorm.DB, genre string) *gorm.DB {
	token := strings.ToLower(strings.TrimSpace(genre))
	return db.Where(`(',' || REPLACE(LOWER(genres), ' ', '') || ',') LIKE ? ESCAPE '\'`,
		"%,"+likeEscaper.Replace(token)+",%")
}
