package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/testutil"
	"github.com/user/reelverse/internal/utils"
	"gorm.io/gorm"
)

func TestRateMovie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.Ratings
	user := testutil.CreateUser(t, f.db, "u")
	movie := testutil.CreateMovie(t, f.db, "m")

	_, err := svc.Rate(ctx, user.ID, movie.ID, 6, "")
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Rate(ctx, user.ID, 999, 3, "")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	r, err := svc.Rate(ctx, user.ID, movie.ID, 4, "<i>solid</i>")
	require.NoError(t, err)
	assert.Equal(t, "solid", r.Review)
	_, err = svc.Rate(ctx, user.ID, movie.ID, 2, "changed my mind")
	require.NoError(t, err)

	page, err := svc.List(movie.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].Score)
	assert.Equal(t, int64(1), page.Summary.Count)

	// 只有第一次评分计分
	points, err := f.repos.Gamification.UserPoints(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, points)

	require.NoError(t, svc.Remove(user.ID, movie.ID))
	assert.ErrorIs(t, svc.Remove(user.ID, movie.ID), gorm.ErrRecordNotFound)
}

func TestWatchlistOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.Watchlists
	owner := testutil.CreateUser(t, f.db, "owner")
	other := testutil.CreateUser(t, f.db, "other")
	movie := testutil.CreateMovie(t, f.db, "m")

	_, err := svc.Create(owner.ID, "  ", false)
	assert.ErrorIs(t, err, utils.ErrInvalid)

	w, err := svc.Create(owner.ID, "Weekend", false)
	require.NoError(t, err)

	_, err = svc.Get(other.ID, w.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound, "private lists are hidden")
	assert.ErrorIs(t, svc.AddMovie(ctx, other.ID, w.ID, movie.ID), utils.ErrNotFound)
	_, err = svc.Update(other.ID, w.ID, "Taken", nil)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(other.ID, w.ID), utils.ErrNotFound)
	assert.ErrorIs(t, svc.AddMovie(ctx, owner.ID, w.ID, 999), utils.ErrNotFound)

	require.NoError(t, svc.AddMovie(ctx, owner.ID, w.ID, movie.ID))
	assert.ErrorIs(t, svc.AddMovie(ctx, owner.ID, w.ID, movie.ID), gorm.ErrDuplicatedKey)

	public := true
	_, err = svc.Update(owner.ID, w.ID, "", &public)
	require.NoError(t, err)
	seen, err := svc.Get(other.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekend", seen.Name)
	assert.Len(t, seen.Movies, 1)

	assert.ErrorIs(t, svc.RemoveMovie(owner.ID, w.ID, 999), gorm.ErrRecordNotFound)
	require.NoError(t, svc.RemoveMovie(owner.ID, w.ID, movie.ID))

	assert.ErrorIs(t, svc.Delete(other.ID, w.ID), utils.ErrForbidden)
	require.NoError(t, svc.Delete(owner.ID, w.ID))

	points, err := f.repos.Gamification.UserPoints(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, points)
}

func TestHistoryRecordAndCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.History
	user := testutil.CreateUser(t, f.db, "u")
	movie := testutil.CreateMovie(t, f.db, "m")

	_, err := svc.Record(ctx, user.ID, 999, 0, false)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	var eps []*model.Episode
	for i := 1; i <= 4; i++ {
		eps = append(eps, testutil.CreateEpisode(t, f.db, movie.ID, i))
	}

	h, err := svc.Record(ctx, user.ID, eps[0].ID, 30, false)
	require.NoError(t, err)
	assert.Equal(t, movie.ID, h.MovieID)
	assert.Equal(t, 30, h.Progress)

	_, err = svc.Record(ctx, user.ID, eps[0].ID, 1200, true)
	require.NoError(t, err)
	_, err = svc.Record(ctx, user.ID, eps[0].ID, 1200, true)
	require.NoError(t, err)
	points, err := f.repos.Gamification.UserPoints(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, points, "an episode completes once")

	for _, ep := range eps[1:] {
		_, err = svc.Record(ctx, user.ID, ep.ID, 10, false)
		require.NoError(t, err)
	}
	items, total, err := svc.List(user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "capped at the configured limit")
	assert.Equal(t, eps[3].ID, items[0].EpisodeID)

	// 直接写入超过上限的记录，由清理任务裁剪
	other := testutil.CreateEpisode(t, f.db, movie.ID, 5)
	require.NoError(t, f.repos.History.Upsert(&model.WatchHistory{UserID: user.ID, EpisodeID: other.ID, MovieID: movie.ID}, 0))
	res := f.svc.Cleanup.RunOnce()
	assert.Equal(t, int64(1), res.HistoryTrimmed)

	assert.ErrorIs(t, svc.Delete(user.ID+1, items[0].ID), gorm.ErrRecordNotFound)
	require.NoError(t, svc.Delete(user.ID, items[0].ID))
	n, err := svc.Clear(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
