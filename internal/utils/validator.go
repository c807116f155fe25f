package utils

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct 校验结构体，返回 字段 -> 错误信息，校验通过返回 nil
func ValidateStruct(data interface{}) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	return fieldErrors(err)
}

// BindingErrors 将 ShouldBind 返回的错误转换为字段错误，非校验错误返回 nil
func BindingErrors(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	return fieldErrors(ve)
}

func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = errorMessage(fe)
		}
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "email":
		return "邮箱格式不正确"
	case "min":
		return fmt.Sprintf("最小值/长度为 %s", fe.Param())
	case "max":
		return fmt.Sprintf("最大值/长度为 %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("必须是以下之一: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return "格式不正确"
	}
}

// FormatValidationErrors 拼接为单行消息，字段按名称排序
func FormatValidationErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return strings.Join(msgs, "; ")
}

// RespondBindError 处理请求绑定失败
func RespondBindError(c *gin.Context, err error) {
	if fields := BindingErrors(err); len(fields) > 0 {
		ValidationError(c, fields)
		return
	}
	BadRequest(c, "请求格式错误")
}

// ParseID 解析路径中的数字 ID
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的 ID")
		return 0, false
	}
	return uint(id), true
}

// ParsePage 解析分页参数，page_size 上限 100
func ParsePage(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
