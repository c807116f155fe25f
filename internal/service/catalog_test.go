package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/testutil"
	"github.com/user/reelverse/internal/utils"
	"gorm.io/gorm"
)

func TestMovieCatalog(t *testing.T) {
	f := newFixture(t)
	cat := f.svc.Catalog
	ctx := context.Background()

	m := &model.Movie{Title: "The Matrix", Genres: "Sci-Fi, action,sci-fi"}
	require.NoError(t, cat.CreateMovie(m))
	assert.Equal(t, "the-matrix", m.Slug)
	assert.Equal(t, "sci-fi,action", m.Genres)
	assert.Equal(t, model.MovieTypeMovie, m.Type)

	err := cat.CreateMovie(&model.Movie{Title: "The  Matrix!"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, cat.CreateMovie(&model.Movie{Title: "  "}), utils.ErrInvalid)
	assert.ErrorIs(t, cat.CreateMovie(&model.Movie{Title: "X", Type: "podcast"}), utils.ErrInvalid)

	list, err := cat.ListMovies(repository.MovieFilter{Query: "matrix", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	require.NoError(t, cat.CreateEpisode(&model.Episode{MovieID: m.ID, Number: 2, Title: "two"}))
	require.NoError(t, cat.CreateEpisode(&model.Episode{MovieID: m.ID, Number: 1, Title: "one"}))
	err = cat.CreateEpisode(&model.Episode{MovieID: m.ID, Number: 1})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, cat.CreateEpisode(&model.Episode{MovieID: 999, Number: 1}), utils.ErrNotFound)

	got, err := cat.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.Episodes, 2)
	assert.Equal(t, "one", got.Episodes[0].Title)

	// 缓存命中后修改，缓存应失效
	got.Title = "mutated in cache"
	m.Title = "The Matrix Reloaded"
	m.Slug = ""
	require.NoError(t, cat.UpdateMovie(m))
	got, err = cat.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix Reloaded", got.Title)

	_, err = cat.GetMovie(ctx, 12345)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	require.NoError(t, cat.DeleteMovie(m.ID))
	_, err = cat.GetMovie(ctx, m.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, cat.DeleteMovie(m.ID), gorm.ErrRecordNotFound)
}

func TestListMoviesCachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	cat := f.svc.Catalog

	require.NoError(t, cat.CreateMovie(&model.Movie{Title: "Alpha"}))
	first, err := cat.ListMovies(repository.MovieFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Total)

	// 绕过服务直接写库，缓存仍返回旧结果
	testutil.CreateMovie(t, f.db, "beta")
	cached, err := cat.ListMovies(repository.MovieFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Total)

	require.NoError(t, cat.CreateMovie(&model.Movie{Title: "Gamma"}))
	fresh, err := cat.ListMovies(repository.MovieFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh.Total)
}

func TestInvalidateAllMovies(t *testing.T) {
	f := newFixture(t)
	cat := f.svc.Catalog
	ctx := context.Background()
	movie := testutil.CreateMovie(t, f.db, "rated")
	user := testutil.CreateUser(t, f.db, "critic")

	_, err := f.svc.Ratings.Rate(ctx, user.ID, movie.ID, 4, "")
	require.NoError(t, err)
	got, err := cat.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RatingCount)

	// 删除用户会在库中重算评分，但详情缓存不知情
	require.NoError(t, f.repos.User.Delete(user.ID))
	got, err = cat.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RatingCount)

	cat.InvalidateAllMovies()
	got, err = cat.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RatingCount)
}

func TestComicCatalog(t *testing.T) {
	f := newFixture(t)
	cat := f.svc.Catalog
	ctx := context.Background()

	c := &model.Comic{Title: "海贼王", Author: "尾田荣一郎"}
	require.NoError(t, cat.CreateComic(ctx, c, fileHeader(t, "cover.png", pngBytes(t, 600, 900))))
	assert.Equal(t, "海贼王", c.Slug)
	assert.Equal(t, model.ComicStatusOngoing, c.Status)
	assert.NotEmpty(t, c.CoverURL)
	assert.NotEmpty(t, c.ThumbnailURL)

	assert.ErrorIs(t, cat.CreateComic(ctx, &model.Comic{Title: "x", Status: "paused"}, nil), utils.ErrInvalid)

	pages, err := cat.AddPages(ctx, c.ID, 1, pageFiles(t, 2))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Number)

	more, err := cat.AddPages(ctx, c.ID, 1, pageFiles(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, more[0].Number)

	_, err = cat.AddPages(ctx, c.ID, 0, pageFiles(t, 1))
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = cat.AddPages(ctx, 999, 1, pageFiles(t, 1))
	assert.ErrorIs(t, err, utils.ErrNotFound)

	got, err := cat.GetComic(c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Pages, 3)

	require.NoError(t, cat.DeletePage(ctx, c.ID, pages[0].ID))
	assert.ErrorIs(t, cat.DeletePage(ctx, c.ID, pages[0].ID), utils.ErrNotFound)
	got, err = cat.GetComic(c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Pages, 2)

	oldCover := c.CoverURL
	upd := &model.Comic{ID: c.ID, Title: "One Piece", Status: model.ComicStatusCompleted}
	require.NoError(t, cat.UpdateComic(ctx, upd, fileHeader(t, "new.jpg", pngBytes(t, 300, 300))))
	assert.NotEqual(t, oldCover, upd.CoverURL)
	assert.Equal(t, "one-piece", upd.Slug)

	require.NoError(t, cat.DeleteComic(ctx, c.ID))
	_, err = cat.GetComic(c.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
