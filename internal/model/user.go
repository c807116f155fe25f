package model

import (
	"time"
)

// 角色名称
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// DefaultRoles 迁移时写入的角色
var DefaultRoles = []string{RoleUser, RoleModerator, RoleAdmin}

// User 用户模型
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar_url"`
	GoogleID     *string   `json:"-" gorm:"uniqueIndex;size:128"`
	FirebaseUID  *string   `json:"-" gorm:"uniqueIndex;size:128"`
	Points       int       `json:"points" gorm:"not null;default:0;index"`
	Roles        []Role    `json:"roles" gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames 角色名列表
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole 是否拥有角色
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Role 角色
type Role struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:32;not null"`
}

// Author 评论等公开场景下展示的用户信息
type Author struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Points    int    `json:"points"`
}

func (Author) TableName() string {
	return "users"
}
