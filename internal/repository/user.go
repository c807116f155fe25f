package repository

import (
	"errors"

	"github.com/user/reelverse/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户并赋予默认角色，password 为空时不设置密码（第三方登录）
func (r *UserRepository) Create(user *model.User, password string) error {
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hash)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(user.Roles) == 0 {
			var role model.Role
			if err := tx.Where("name = ?", model.RoleUser).First(&role).Error; err != nil {
				return err
			}
			user.Roles = []model.Role{role}
		}
		return tx.Create(user).Error
	})
}

// FindByEmail 根据邮箱查找用户
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	return r.findOne("email = ?", email)
}

// FindByUsername 根据用户名查找用户
func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	return r.findOne("username = ?", username)
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	return r.findOne("id = ?", id)
}

// FindByGoogleID 根据 Google 账号查找用户
func (r *UserRepository) FindByGoogleID(googleID string) (*model.User, error) {
	return r.findOne("google_id = ?", googleID)
}

// FindByFirebaseUID 根据 Firebase UID 查找用户
func (r *UserRepository) FindByFirebaseUID(uid string) (*model.User, error) {
	return r.findOne("firebase_uid = ?", uid)
}

func (r *UserRepository) findOne(query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := r.db.Preload("Roles").Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CheckPassword 验证密码
func (r *UserRepository) CheckPassword(user *model.User, password string) bool {
	if user.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

// LinkGoogle 绑定 Google 账号
func (r *UserRepository) LinkGoogle(userID uint, googleID, avatar string) error {
	updates := map[string]interface{}{"google_id": googleID}
	if avatar != "" {
		updates["avatar_url"] = avatar
	}
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// LinkFirebase 绑定 Firebase 账号
func (r *UserRepository) LinkFirebase(userID uint, uid string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("firebase_uid", uid).Error
}

// List 分页获取用户
func (r *UserRepository) List(limit, offset int) ([]*model.User, int64, error) {
	var total int64
	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []*model.User
	err := r.db.Preload("Roles").Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// Count 获取用户总数
func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

// FindRoles 根据名称查找角色，全部存在时返回
func (r *UserRepository) FindRoles(names []string) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// ReplaceRoles 替换用户角色
func (r *UserRepository) ReplaceRoles(user *model.User, roles []model.Role) error {
	return r.db.Model(user).Association("Roles").Replace(roles)
}

// Delete 删除用户及其产生的数据
func (r *UserRepository) Delete(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&model.Comment{}).Where("user_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if _, err := deleteCommentTrees(tx, commentIDs); err != nil {
			return err
		}

		var watchlistIDs []uint
		if err := tx.Model(&model.Watchlist{}).Where("user_id = ?", userID).Pluck("id", &watchlistIDs).Error; err != nil {
			return err
		}
		if len(watchlistIDs) > 0 {
			if err := tx.Where("watchlist_id IN ?", watchlistIDs).Delete(&model.WatchlistMovie{}).Error; err != nil {
				return err
			}
		}

		var ratedMovies []uint
		if err := tx.Model(&model.Rating{}).Where("user_id = ?", userID).Pluck("movie_id", &ratedMovies).Error; err != nil {
			return err
		}

		for _, m := range []interface{}{
			&model.Watchlist{}, &model.Rating{}, &model.WatchHistory{},
			&model.UserBadge{}, &model.PointEvent{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}

		for _, movieID := range ratedMovies {
			if err := refreshMovieRating(tx, movieID); err != nil {
				return err
			}
		}

		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}

// UpdateProfile 修改用户名与头像
func (r *UserRepository) UpdateProfile(userID uint, username, avatarURL string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"username":   username,
		"avatar_url": avatarURL,
	}).Error
}

// UpdatePassword 修改密码
func (r *UserRepository) UpdatePassword(userID uint, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("password_hash", string(hash)).Error
}
