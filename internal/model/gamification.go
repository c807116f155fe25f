package model

import (
	"time"
)

// 积分行为
const (
	ActionComment   = "comment"
	ActionRating    = "rating"
	ActionWatch     = "watch"
	ActionWatchlist = "watchlist"
)

// 徽章统计维度
const (
	BadgeKindComments = "comments"
	BadgeKindRatings  = "ratings"
	BadgeKindWatches  = "watches"
	BadgeKindPoints   = "points"
)

// Badge 徽章定义
type Badge struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex;size:64;not null"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Kind        string    `json:"kind" gorm:"size:16;not null"`
	Threshold   int       `json:"threshold" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge 用户已获得的徽章
type UserBadge struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey"`
	BadgeID   uint      `json:"badge_id" gorm:"primaryKey"`
	AwardedAt time.Time `json:"awarded_at"`
	Badge     *Badge    `json:"badge,omitempty"`
}

// PointEvent 积分流水，(user_id, action, ref_id) 唯一
// 评论的 RefID 是评论本身，因此每条评论都计分
type PointEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_point_event_once"`
	Action    string    `json:"action" gorm:"size:32;not null;uniqueIndex:idx_point_event_once"`
	RefID     uint      `json:"ref_id" gorm:"not null;default:0;uniqueIndex:idx_point_event_once"`
	Points    int       `json:"points" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// DefaultBadges 迁移时写入的内置徽章
func DefaultBadges() []Badge {
	return []Badge{
		{Code: "first_comment", Name: "初次发言", Description: "发表第一条评论", Kind: BadgeKindComments, Threshold: 1},
		{Code: "chatterbox", Name: "话痨", Description: "累计发表 25 条评论", Kind: BadgeKindComments, Threshold: 25},
		{Code: "critic", Name: "影评人", Description: "第一次为影片打分", Kind: BadgeKindRatings, Threshold: 1},
		{Code: "top_critic", Name: "资深影评人", Description: "累计为 20 部影片打分", Kind: BadgeKindRatings, Threshold: 20},
		{Code: "binge_watcher", Name: "追剧狂人", Description: "看完 50 集", Kind: BadgeKindWatches, Threshold: 50},
		{Code: "rising_star", Name: "新星", Description: "积分达到 100", Kind: BadgeKindPoints, Threshold: 100},
		{Code: "legend", Name: "传奇", Description: "积分达到 1000", Kind: BadgeKindPoints, Threshold: 1000},
	}
}
