package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/config"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/service"
	"github.com/user/reelverse/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos    *repository.Repositories
	Config   *config.Config
	Services *service.Services
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, svc *service.Services) *Handler {
	return &Handler{
		Repos:    repos,
		Config:   cfg,
		Services: svc,
	}
}

// actor 当前登录用户及其角色
func actor(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.GetUserID(c), Roles: middleware.GetRoles(c)}
}

// paging 解析分页参数，返回 page、pageSize 与 offset
func paging(c *gin.Context) (page, pageSize, offset int) {
	page, pageSize = utils.ParsePage(c)
	return page, pageSize, (page - 1) * pageSize
}

// authResponse 登录成功后返回的数据
type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// issueToken 签发 JWT 并写入 Cookie
func (h *Handler) issueToken(c *gin.Context, user *model.User) (*authResponse, error) {
	token, err := middleware.GenerateToken(user.ID, user.Email, user.RoleNames(), h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		return nil, err
	}
	middleware.SetTokenCookie(c, token, h.Config.JWTExpiry)
	return &authResponse{Token: token, User: user}, nil
}
