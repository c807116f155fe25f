package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/storage"
	"github.com/user/reelverse/internal/testutil"
	"github.com/user/reelverse/internal/utils"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	repos *repository.Repositories
	svc   *Services
	store *storage.LocalStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	utils.CacheClear()

	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	svc := NewServices(repos, Options{Storage: store, HistoryLimit: 3})
	return &fixture{db: db, repos: repos, svc: svc, store: store}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeader 构造 multipart 上传文件
func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func uintPtr(v uint) *uint { return &v }

func pageFiles(t *testing.T, n int) []*multipart.FileHeader {
	t.Helper()
	files := make([]*multipart.FileHeader, n)
	for i := range files {
		files[i] = fileHeader(t, fmt.Sprintf("page%d.png", i+1), pngBytes(t, 40, 60))
	}
	return files
}
