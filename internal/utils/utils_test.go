package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  hello world ", "hello world"},
		{"tags stripped", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"script removed", "hi<script>alert(1)</script>", "hi"},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"comparison kept", "a < b", "a < b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "the-matrix-1999", Slugify("The Matrix (1999)"))
	assert.Equal(t, "霸王别姬", Slugify("霸王别姬"))
	assert.Equal(t, "a-b", Slugify("  a -- b  "))
	assert.Equal(t, "untitled", Slugify("!!!"))
}

func TestNormalizeGenres(t *testing.T) {
	assert.Equal(t, "drama,sci-fi", NormalizeGenres(" Drama, sci-fi ,drama,,"))
	assert.Equal(t, "", NormalizeGenres(""))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewError(ErrInvalid, "x"), http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{NewError(ErrForbidden, "x"), http.StatusForbidden},
		{NewError(ErrNotFound, "x"), http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey), http.StatusConflict},
		{NewError(ErrConflict, "x"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestHandleErrorUsesAppMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleError(c, NewError(ErrNotFound, "影片不存在"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "影片不存在", resp.Message)
}

func TestHandleErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleError(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

type uploadForm struct {
	Title  string `validate:"required,max=10"`
	Status string `validate:"oneof=ongoing completed"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(uploadForm{Title: "ok", Status: "ongoing"}))

	errs := ValidateStruct(uploadForm{Status: "paused"})
	assert.Equal(t, "不能为空", errs["Title"])
	assert.Contains(t, errs["Status"], "ongoing, completed")
	assert.Equal(t, "Status: "+errs["Status"]+"; Title: 不能为空", FormatValidationErrors(errs))
}

func TestParsePage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x?page=0&page_size=500", nil)

	page, size := ParsePage(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, size)
}

func TestSearchCacheExpiry(t *testing.T) {
	c := NewSearchCache[int](2, 20*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // a 被淘汰

	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, c.PurgeExpired())
	assert.Equal(t, 0, c.Len())
}

func TestCacheDeletePrefix(t *testing.T) {
	InitCache()
	CacheSet("movie:1", 1, time.Minute)
	CacheSet("movie:2", 2, time.Minute)
	CacheSet("comic:1", 3, time.Minute)

	CacheDeletePrefix("movie:")

	_, ok := CacheGet("movie:1")
	assert.False(t, ok)
	_, ok = CacheGet("comic:1")
	assert.True(t, ok)
}
