package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 第三方登录来源
const (
	ProviderGoogle   = "google"
	ProviderFirebase = "firebase"
)

// ExternalIdentity 第三方账号信息
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// AuthService 注册、登录与账号绑定
type AuthService struct {
	users *repository.UserRepository
	log   *zap.Logger
}

func NewAuthService(users *repository.UserRepository) *AuthService {
	return &AuthService{users: users, log: logger.Named("auth")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 2 && n <= 32
}

// Register 邮箱注册，未提供用户名时取邮箱 @ 之前的部分
func (s *AuthService) Register(email, username, password string) (*model.User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if len(password) < 6 {
		return nil, utils.NewError(utils.ErrInvalid, "密码至少需要 6 个字符")
	}

	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewError(utils.ErrConflict, "该邮箱已被注册")
	}

	if username == "" {
		if username, err = s.uniqueUsername(email); err != nil {
			return nil, err
		}
	} else {
		if !validUsername(username) {
			return nil, utils.NewError(utils.ErrInvalid, "用户名应在 2-32 个字符之间")
		}
		taken, err := s.users.FindByUsername(username)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, utils.NewError(utils.ErrConflict, "用户名已被使用")
		}
	}

	user := &model.User{Email: email, Username: username}
	if err := s.users.Create(user, password); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewError(utils.ErrConflict, "该邮箱或用户名已被注册")
		}
		return nil, err
	}
	s.log.Info("新用户注册", logger.WithUserID(user.ID))
	return s.users.FindByID(user.ID)
}

// Login 邮箱密码登录
func (s *AuthService) Login(email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		return nil, utils.NewError(utils.ErrUnauthorized, "邮箱或密码错误")
	}
	return user, nil
}

// LoginExternal 第三方登录：先按第三方账号查找，再按已验证的邮箱合并账号，都没有则新建
func (s *AuthService) LoginExternal(ctx context.Context, id *ExternalIdentity) (*model.User, error) {
	if id == nil || id.Subject == "" {
		return nil, utils.NewError(utils.ErrUnauthorized, "第三方账号信息无效")
	}

	var (
		user *model.User
		err  error
	)
	switch id.Provider {
	case ProviderGoogle:
		user, err = s.users.FindByGoogleID(id.Subject)
	case ProviderFirebase:
		user, err = s.users.FindByFirebaseUID(id.Subject)
	default:
		return nil, utils.NewError(utils.ErrInvalid, "不支持的登录方式")
	}
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, utils.NewError(utils.ErrUnauthorized, "第三方账号缺少邮箱")
	}

	user, err = s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if !id.EmailVerified {
			return nil, utils.NewError(utils.ErrConflict, "该邮箱已注册，请使用密码登录后绑定")
		}
		if err := s.link(user.ID, id); err != nil {
			return nil, err
		}
		s.log.Info("绑定第三方账号", logger.WithUserID(user.ID), zap.String("provider", id.Provider))
		return s.users.FindByID(user.ID)
	}

	username, err := s.uniqueUsername(firstNonEmpty(id.Name, email))
	if err != nil {
		return nil, err
	}
	user = &model.User{Email: email, Username: username, AvatarURL: id.AvatarURL}
	subject := id.Subject
	if id.Provider == ProviderGoogle {
		user.GoogleID = &subject
	} else {
		user.FirebaseUID = &subject
	}
	if err := s.users.Create(user, ""); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewError(utils.ErrConflict, "账号已存在")
		}
		return nil, err
	}
	s.log.Info("第三方登录新建用户", logger.WithUserID(user.ID), zap.String("provider", id.Provider))
	return s.users.FindByID(user.ID)
}

func (s *AuthService) link(userID uint, id *ExternalIdentity) error {
	if id.Provider == ProviderGoogle {
		return s.users.LinkGoogle(userID, id.Subject, id.AvatarURL)
	}
	return s.users.LinkFirebase(userID, id.Subject)
}

// UpdateProfile 修改用户名和头像
func (s *AuthService) UpdateProfile(userID uint, username, avatarURL string) (*model.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.NewError(utils.ErrNotFound, "用户不存在")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = user.Username
	}
	if !validUsername(username) {
		return nil, utils.NewError(utils.ErrInvalid, "用户名应在 2-32 个字符之间")
	}
	if username != user.Username {
		taken, err := s.users.FindByUsername(username)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, utils.NewError(utils.ErrConflict, "用户名已被使用")
		}
	}
	if err := s.users.UpdateProfile(userID, username, strings.TrimSpace(avatarURL)); err != nil {
		return nil, err
	}
	return s.users.FindByID(userID)
}

// ChangePassword 修改密码，已设置密码时需要验证当前密码
func (s *AuthService) ChangePassword(userID uint, current, next string) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.NewError(utils.ErrNotFound, "用户不存在")
	}
	if user.PasswordHash != "" && !s.users.CheckPassword(user, current) {
		return utils.NewError(utils.ErrUnauthorized, "当前密码错误")
	}
	if len(next) < 6 {
		return utils.NewError(utils.ErrInvalid, "密码至少需要 6 个字符")
	}
	return s.users.UpdatePassword(userID, next)
}

// uniqueUsername 由名称或邮箱生成未被占用的用户名
func (s *AuthService) uniqueUsername(seed string) (string, error) {
	base := seed
	if i := strings.Index(base, "@"); i > 0 {
		base = base[:i]
	}
	base = strings.Join(strings.Fields(base), "_")
	if utf8.RuneCountInString(base) < 2 {
		base = "user"
	}
	if r := []rune(base); len(r) > 24 {
		base = string(r[:24])
	}

	candidate := base
	for i := 0; i < 10; i++ {
		taken, err := s.users.FindByUsername(candidate)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%04d", base, rand.IntN(10000))
	}
	return "", utils.NewError(utils.ErrConflict, "无法生成可用的用户名")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
