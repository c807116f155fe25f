package utils

import (
	"errors"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 业务错误类型，HandleError 按类型映射状态码
var (
	ErrInvalid      = errors.New("参数错误")
	ErrUnauthorized = errors.New("未登录")
	ErrForbidden    = errors.New("没有权限")
	ErrNotFound     = errors.New("资源不存在")
	ErrConflict     = errors.New("资源已存在")
)

// AppError 带有面向用户消息的业务错误
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Kind }

// NewError 创建业务错误，例如 NewError(ErrNotFound, "影片不存在")
func NewError(kind error, message string) error {
	return &AppError{Kind: kind, Message: message}
}

// StatusOf 错误对应的 HTTP 状态码
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 将错误写入响应，500 记录日志并上报 Sentry
func HandleError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("请求处理失败",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		InternalServerError(c, "")
		return
	}

	message := err.Error()
	var appErr *AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	} else if errors.Is(err, gorm.ErrDuplicatedKey) {
		message = ErrConflict.Error()
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		message = ErrNotFound.Error()
	}
	Error(c, status, message)
}
