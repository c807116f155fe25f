package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/service"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
)

const oauthStateKey = "oauth_state"

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"omitempty,min=2,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type firebaseRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type profileRequest struct {
	Username  string `json:"username" binding:"omitempty,min=2,max=32"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// Register 邮箱注册
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	user, err := h.Services.Auth.Register(req.Email, req.Username, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	resp, err := h.issueToken(c, user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, resp)
}

// Login 邮箱密码登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	user, err := h.Services.Auth.Login(req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	resp, err := h.issueToken(c, user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, resp)
}

// Logout 退出登录
func (h *Handler) Logout(c *gin.Context) {
	middleware.ClearTokenCookie(c)
	utils.SuccessWithMessage(c, "已退出登录", nil)
}

// Me 当前用户信息，附带积分与徽章
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.Repos.User.FindByID(userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if user == nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	badges, err := h.Repos.Gamification.UserBadges(userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"user":   user,
		"badges": badges,
	})
}

// UpdateProfile 修改用户名与头像
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	user, err := h.Services.Auth.UpdateProfile(middleware.GetUserID(c), req.Username, req.AvatarURL)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, user)
}

// UpdatePassword 修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	if err := h.Services.Auth.ChangePassword(middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "密码已更新", nil)
}

// GoogleLogin 跳转到 Google 授权页，state 保存在 Session 中
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.Services.Google == nil {
		utils.Error(c, http.StatusNotImplemented, "未启用 Google 登录")
		return
	}

	state, err := randomState()
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		utils.HandleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, h.Services.Google.AuthCodeURL(state))
}

// GoogleCallback Google 授权回调
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Services.Google == nil {
		utils.Error(c, http.StatusNotImplemented, "未启用 Google 登录")
		return
	}

	session := sessions.Default(c)
	expected, _ := session.Get(oauthStateKey).(string)
	session.Delete(oauthStateKey)
	_ = session.Save()

	state := c.Query("state")
	if expected == "" || state != expected {
		utils.BadRequest(c, "登录状态校验失败，请重试")
		return
	}
	code := c.Query("code")
	if code == "" {
		utils.BadRequest(c, "缺少授权码")
		return
	}

	identity, err := h.Services.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		logger.Log.Warn("Google 授权码兑换失败", zap.Error(err))
		utils.Unauthorized(c, "Google 登录失败")
		return
	}
	h.loginExternal(c, identity)
}

// FirebaseLogin 使用 Firebase ID Token 登录
func (h *Handler) FirebaseLogin(c *gin.Context) {
	if h.Services.Firebase == nil {
		utils.Error(c, http.StatusNotImplemented, "未启用 Firebase 登录")
		return
	}

	var req firebaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	identity, err := h.Services.Firebase.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		logger.Log.Warn("Firebase Token 校验失败", zap.Error(err))
		utils.Unauthorized(c, "Firebase 登录失败")
		return
	}
	h.loginExternal(c, identity)
}

func (h *Handler) loginExternal(c *gin.Context, identity *service.ExternalIdentity) {
	user, err := h.Services.Auth.LoginExternal(c.Request.Context(), identity)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	resp, err := h.issueToken(c, user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, resp)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
