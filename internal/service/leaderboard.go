package service

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int           `json:"rank"`
	User   *model.Author `json:"user"`
	Points int           `json:"points"`
}

// Leaderboard 积分排行榜
type Leaderboard interface {
	Update(ctx context.Context, userID uint, total int) error
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// DBLeaderboard 直接按 users.points 排序
type DBLeaderboard struct {
	repo *repository.GamificationRepository
}

func NewDBLeaderboard(repo *repository.GamificationRepository) *DBLeaderboard {
	return &DBLeaderboard{repo: repo}
}

// Update 积分已写入数据库，无需额外处理
func (b *DBLeaderboard) Update(ctx context.Context, userID uint, total int) error {
	return nil
}

func (b *DBLeaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	users, err := b.repo.TopUsers(limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{Rank: i + 1, User: u, Points: u.Points}
	}
	return entries, nil
}

const leaderboardKey = "leaderboard:points"

// RedisLeaderboard 基于 Redis 有序集合的排行榜
type RedisLeaderboard struct {
	client *redis.Client
	repo   *repository.GamificationRepository
	key    string
}

func NewRedisLeaderboard(client *redis.Client, repo *repository.GamificationRepository) *RedisLeaderboard {
	return &RedisLeaderboard{client: client, repo: repo, key: leaderboardKey}
}

func (b *RedisLeaderboard) Update(ctx context.Context, userID uint, total int) error {
	return b.client.ZAdd(ctx, b.key, redis.Z{
		Score:  float64(total),
		Member: strconv.FormatUint(uint64(userID), 10),
	}).Err()
}

func (b *RedisLeaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	zs, err := b.client.ZRevRangeWithScores(ctx, b.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(zs))
	for _, z := range zs {
		id, err := strconv.ParseUint(z.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	authors, err := b.repo.AuthorsByIDs(ids)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for _, z := range zs {
		id, _ := strconv.ParseUint(z.Member.(string), 10, 64)
		author, ok := authors[uint(id)]
		if !ok {
			// 用户已删除
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:   len(entries) + 1,
			User:   author,
			Points: int(z.Score),
		})
	}
	return entries, nil
}

// Remove 从排行榜移除用户
func (b *RedisLeaderboard) Remove(ctx context.Context, userID uint) error {
	return b.client.ZRem(ctx, b.key, strconv.FormatUint(uint64(userID), 10)).Err()
}

// Rebuild 用数据库中的积分重建有序集合
func (b *RedisLeaderboard) Rebuild(ctx context.Context, size int) (int, error) {
	users, err := b.repo.TopUsers(size)
	if err != nil {
		return 0, err
	}

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, b.key)
	for _, u := range users {
		pipe.ZAdd(ctx, b.key, redis.Z{
			Score:  float64(u.Points),
			Member: strconv.FormatUint(uint64(u.ID), 10),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(users), nil
}
