package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
)

// 上下文中的键
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRoles  = "roles"
)

// TokenCookie 存放 JWT 的 Cookie 名称
const TokenCookie = "token"

// Claims JWT 声明
type Claims struct {
	UserID uint     `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserLoader 按 ID 读取用户及其角色，用户不存在时返回 (nil, nil)
type UserLoader func(id uint) (*model.User, error)

var errUnauthenticated = errors.New("未登录")

// RequireAuth 必须登录中间件
// load 不为空时每次请求都从数据库读取用户，角色以数据库为准
func RequireAuth(jwtSecret string, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 前置的 OptionalAuth 已经完成校验
		if _, ok := c.Get(ctxUserID); ok {
			c.Next()
			return
		}

		claims, err := authenticate(c, jwtSecret, load)
		if err != nil {
			if isAuthFailure(err) {
				ClearTokenCookie(c)
				utils.Unauthorized(c, "未登录或登录已过期")
			} else {
				utils.HandleError(c, err)
			}
			c.Abort()
			return
		}

		setClaims(c, claims)
		refreshIfNeeded(c, claims, jwtSecret)
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(jwtSecret string, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, jwtSecret, load)
		switch {
		case err == nil:
			setClaims(c, claims)
			refreshIfNeeded(c, claims, jwtSecret)
		case !isAuthFailure(err):
			logger.Log.Warn("读取登录用户失败", zap.Error(err))
		}
		c.Next()
	}
}

// authenticate 校验 Token，并用数据库中的邮箱和角色覆盖 Token 中的旧值
func authenticate(c *gin.Context, jwtSecret string, load UserLoader) (*Claims, error) {
	claims, err := extractClaims(c, jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnauthenticated, err)
	}
	if load == nil {
		return claims, nil
	}

	user, err := load(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("读取用户 %d: %w", claims.UserID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: 用户 %d 已删除", errUnauthenticated, claims.UserID)
	}
	claims.Email = user.Email
	claims.Roles = user.RoleNames()
	return claims, nil
}

// isAuthFailure Token 无效或用户已删除
func isAuthFailure(err error) bool {
	return errors.Is(err, errUnauthenticated)
}

// RequireRole 需要任一角色，须在 RequireAuth 之后使用
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range roles {
			if HasRole(c, r) {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "没有权限执行该操作")
		c.Abort()
	}
}

// RequireAdmin 管理员权限中间件
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin)
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRoles, claims.Roles)
}

// refreshIfNeeded 滑动续期：消耗超过一半有效期时下发新 Token
func refreshIfNeeded(c *gin.Context, claims *Claims, jwtSecret string) {
	if !shouldRefresh(claims) {
		return
	}
	expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	newToken, err := GenerateToken(claims.UserID, claims.Email, claims.Roles, jwtSecret, expiry)
	if err != nil {
		return
	}
	SetTokenCookie(c, newToken, expiry)
	c.Header("X-Refreshed-Token", newToken)
}

// SetTokenCookie 写入登录 Cookie
func SetTokenCookie(c *gin.Context, token string, expiry time.Duration) {
	c.SetCookie(TokenCookie, token, int(expiry.Seconds()), "/", "", false, true)
}

// ClearTokenCookie 清除登录 Cookie
func ClearTokenCookie(c *gin.Context) {
	c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
}

// extractClaims 从 Header 或 Cookie 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, error) {
	var tokenString string

	// API 客户端优先使用 Authorization Header
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	} else if cookie, err := c.Cookie(TokenCookie); err == nil {
		tokenString = cookie
	}

	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// GetUserID 从上下文获取用户 ID（未登录返回 0）
func GetUserID(c *gin.Context) uint {
	if userID, exists := c.Get(ctxUserID); exists {
		return userID.(uint)
	}
	return 0
}

// GetRoles 从上下文获取角色
func GetRoles(c *gin.Context) []string {
	if roles, exists := c.Get(ctxRoles); exists {
		if rs, ok := roles.([]string); ok {
			return rs
		}
	}
	return nil
}

// HasRole 当前用户是否拥有角色
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// GenerateToken 生成 JWT Token
func GenerateToken(userID uint, email string, roles []string, jwtSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// shouldRefresh 判断是否需要刷新 Token
// 逻辑：如果已经消耗了总有效期的 50% 以上，则建议刷新
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}

	totalDuration := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	elapsedDuration := time.Since(claims.IssuedAt.Time)

	return elapsedDuration > totalDuration/2
}
