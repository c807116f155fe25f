package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/testutil"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint { return &v }

func TestMigrateSeedsRolesAndBadges(t *testing.T) {
	db := testutil.NewDB(t)

	var roles int64
	require.NoError(t, db.Model(&model.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(3), roles)

	var badges int64
	require.NoError(t, db.Model(&model.Badge{}).Count(&badges).Error)
	assert.Equal(t, int64(len(model.DefaultBadges())), badges)

	// 重复迁移不应报错或重复写入
	require.NoError(t, repository.Migrate(db))
	require.NoError(t, db.Model(&model.Badge{}).Count(&badges).Error)
	assert.Equal(t, int64(len(model.DefaultBadges())), badges)
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)

	user := &model.User{Email: "neo@example.com", Username: "neo"}
	require.NoError(t, repo.Create(user, "secret1"))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByEmail("neo@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{model.RoleUser}, found.RoleNames())
	assert.True(t, repo.CheckPassword(found, "secret1"))
	assert.False(t, repo.CheckPassword(found, "wrong"))

	missing, err := repo.FindByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := &model.User{Email: "neo@example.com", Username: "neo2"}
	err = repo.Create(dup, "secret1")
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	roles, err := repo.FindRoles([]string{model.RoleAdmin, model.RoleModerator})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceRoles(found, roles))
	found, err = repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, found.HasRole(model.RoleAdmin))
	assert.False(t, found.HasRole(model.RoleUser))
}

func TestUserDeleteRemovesOwnedData(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	movie := testutil.CreateMovie(t, db, "m1")
	ep := testutil.CreateEpisode(t, db, movie.ID, 1)

	root := &model.Comment{UserID: alice.ID, EpisodeID: &ep.ID, Content: "root"}
	require.NoError(t, repos.Comment.Create(root))
	reply := &model.Comment{UserID: bob.ID, EpisodeID: &ep.ID, ParentID: &root.ID, Content: "reply"}
	require.NoError(t, repos.Comment.Create(reply))

	_, err := repos.Rating.Upsert(&model.Rating{UserID: alice.ID, MovieID: movie.ID, Score: 4})
	require.NoError(t, err)
	_, err = repos.Rating.Upsert(&model.Rating{UserID: bob.ID, MovieID: movie.ID, Score: 2})
	require.NoError(t, err)

	require.NoError(t, repos.User.Delete(alice.ID))

	var comments int64
	require.NoError(t, db.Model(&model.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments, "replies under a deleted user's comment go with it")

	m, err := repos.Movie.FindByID(movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, m.RatingCount)
	assert.Equal(t, 2.0, m.AvgRating)

	gone, err := repos.User.FindByID(alice.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCommentTreeDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCommentRepository(db)
	user := testutil.CreateUser(t, db, "u")
	comic := testutil.CreateComic(t, db, "c")

	mk := func(parent *uint, content string) *model.Comment {
		c := &model.Comment{UserID: user.ID, ComicID: &comic.ID, ParentID: parent, Content: content}
		require.NoError(t, repo.Create(c))
		return c
	}

	root := mk(nil, "root")
	a := mk(&root.ID, "a")
	b := mk(&root.ID, "b")
	a1 := mk(&a.ID, "a1")
	mk(&a1.ID, "a1x")
	other := mk(nil, "other")

	desc, err := repo.Descendants(root.ID)
	require.NoError(t, err)
	assert.Len(t, desc, 4)
	require.NotNil(t, desc[0].User)
	assert.Equal(t, "u", desc[0].User.Username)

	n, err := repo.DeleteTree(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	remaining, err := repo.Descendants(root.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)

	n, err = repo.DeleteTree(root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	still, err := repo.FindByID(other.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestCommentListing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCommentRepository(db)
	user := testutil.CreateUser(t, db, "u")
	movie := testutil.CreateMovie(t, db, "m")
	ep1 := testutil.CreateEpisode(t, db, movie.ID, 1)
	ep2 := testutil.CreateEpisode(t, db, movie.ID, 2)

	first := &model.Comment{UserID: user.ID, EpisodeID: &ep1.ID, Content: "first"}
	require.NoError(t, repo.Create(first))
	second := &model.Comment{UserID: user.ID, EpisodeID: &ep1.ID, Content: "second"}
	require.NoError(t, repo.Create(second))
	reply := &model.Comment{UserID: user.ID, EpisodeID: &ep1.ID, ParentID: &first.ID, Content: "r"}
	require.NoError(t, repo.Create(reply))
	require.NoError(t, repo.Create(&model.Comment{UserID: user.ID, EpisodeID: &ep1.ID, ParentID: &reply.ID, Content: "rr"}))
	require.NoError(t, repo.Create(&model.Comment{UserID: user.ID, EpisodeID: &ep2.ID, Content: "elsewhere"}))

	target := repository.CommentTarget{EpisodeID: uintPtr(ep1.ID)}
	top, total, err := repo.ListTopLevel(target, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, top, 2)
	assert.Equal(t, second.ID, top[0].ID, "newest first")

	replies, err := repo.DescendantsOf([]uint{top[0].ID, top[1].ID})
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, reply.ID, replies[0].ID)

	// 只加载当前页根评论下的回复
	page, _, err := repo.ListTopLevel(target, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	replies, err = repo.DescendantsOf([]uint{page[0].ID})
	require.NoError(t, err)
	assert.Empty(t, replies)

	replies, err = repo.DescendantsOf(nil)
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestRatingUpsertAndSummary(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	u1 := testutil.CreateUser(t, db, "u1")
	u2 := testutil.CreateUser(t, db, "u2")
	movie := testutil.CreateMovie(t, db, "m")

	r, err := repos.Rating.Upsert(&model.Rating{UserID: u1.ID, MovieID: movie.ID, Score: 5, Review: "great"})
	require.NoError(t, err)
	assert.Equal(t, "great", r.Review)

	_, err = repos.Rating.Upsert(&model.Rating{UserID: u1.ID, MovieID: movie.ID, Score: 3, Review: "meh"})
	require.NoError(t, err)
	_, err = repos.Rating.Upsert(&model.Rating{UserID: u2.ID, MovieID: movie.ID, Score: 4})
	require.NoError(t, err)

	s, err := repos.Rating.Summary(movie.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Count)
	assert.InDelta(t, 3.5, s.Avg, 0.001)

	m, err := repos.Movie.FindByID(movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.RatingCount)
	assert.InDelta(t, 3.5, m.AvgRating, 0.001)

	require.NoError(t, repos.Rating.Delete(u1.ID, movie.ID))
	assert.ErrorIs(t, repos.Rating.Delete(u1.ID, movie.ID), gorm.ErrRecordNotFound)

	m, err = repos.Movie.FindByID(movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, m.RatingCount)
	assert.InDelta(t, 4.0, m.AvgRating, 0.001)
}

func TestWatchlistMovies(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewWatchlistRepository(db)
	user := testutil.CreateUser(t, db, "u")
	m1 := testutil.CreateMovie(t, db, "m1")
	m2 := testutil.CreateMovie(t, db, "m2")

	w := &model.Watchlist{UserID: user.ID, Name: "weekend"}
	require.NoError(t, repo.Create(w))

	require.NoError(t, repo.AddMovie(w.ID, m1.ID))
	require.NoError(t, repo.AddMovie(w.ID, m2.ID))
	assert.ErrorIs(t, repo.AddMovie(w.ID, m1.ID), gorm.ErrDuplicatedKey)

	lists, err := repo.ListByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, int64(2), lists[0].MovieCount)

	full, err := repo.FindWithMovies(w.ID)
	require.NoError(t, err)
	assert.Len(t, full.Movies, 2)

	require.NoError(t, repo.RemoveMovie(w.ID, m1.ID))
	assert.ErrorIs(t, repo.RemoveMovie(w.ID, m1.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(w.ID))
	gone, err := repo.FindByID(w.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestHistoryUpsertEvictsOldest(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewHistoryRepository(db)
	user := testutil.CreateUser(t, db, "u")
	movie := testutil.CreateMovie(t, db, "m")

	base := time.Now().Add(-time.Hour)
	var episodes []*model.Episode
	for i := 1; i <= 4; i++ {
		ep := testutil.CreateEpisode(t, db, movie.ID, i)
		episodes = append(episodes, ep)
		require.NoError(t, repo.Upsert(&model.WatchHistory{
			UserID: user.ID, EpisodeID: ep.ID, MovieID: movie.ID,
			WatchedAt: base.Add(time.Duration(i) * time.Minute),
		}, 3))
	}

	count, err := repo.CountByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	oldest, err := repo.FindByUserAndEpisode(user.ID, episodes[0].ID)
	require.NoError(t, err)
	assert.Nil(t, oldest, "oldest entry evicted")

	// 重复观看同一集只更新，不新增
	require.NoError(t, repo.Upsert(&model.WatchHistory{
		UserID: user.ID, EpisodeID: episodes[1].ID, MovieID: movie.ID, Progress: 120, Completed: true,
	}, 3))
	count, err = repo.CountByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := repo.ListByUser(user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, episodes[1].ID, list[0].EpisodeID, "rewatched episode is most recent")
	assert.True(t, list[0].Completed)
	require.NotNil(t, list[0].Episode)
	require.NotNil(t, list[0].Movie)
}

func TestHistoryTrimAndUsersOverLimit(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewHistoryRepository(db)
	user := testutil.CreateUser(t, db, "u")
	movie := testutil.CreateMovie(t, db, "m")
	for i := 1; i <= 5; i++ {
		ep := testutil.CreateEpisode(t, db, movie.ID, i)
		require.NoError(t, repo.Upsert(&model.WatchHistory{UserID: user.ID, EpisodeID: ep.ID, MovieID: movie.ID}, 0))
	}

	ids, err := repo.UsersOverLimit(2)
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, ids)

	n, err := repo.Trim(user.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.Clear(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMovieDeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	user := testutil.CreateUser(t, db, "u")
	movie := testutil.CreateMovie(t, db, "m")
	ep := testutil.CreateEpisode(t, db, movie.ID, 1)

	require.NoError(t, repos.Comment.Create(&model.Comment{UserID: user.ID, EpisodeID: &ep.ID, Content: "x"}))
	require.NoError(t, repos.History.Upsert(&model.WatchHistory{UserID: user.ID, EpisodeID: ep.ID, MovieID: movie.ID}, 500))
	w := &model.Watchlist{UserID: user.ID, Name: "w"}
	require.NoError(t, repos.Watchlist.Create(w))
	require.NoError(t, repos.Watchlist.AddMovie(w.ID, movie.ID))

	require.NoError(t, repos.Movie.Delete(movie.ID))
	assert.ErrorIs(t, repos.Movie.Delete(movie.ID), gorm.ErrRecordNotFound)

	for _, m := range []interface{}{&model.Episode{}, &model.Comment{}, &model.WatchHistory{}, &model.WatchlistMovie{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestEpisodeDuplicateNumber(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEpisodeRepository(db)
	movie := testutil.CreateMovie(t, db, "m")

	require.NoError(t, repo.Create(&model.Episode{MovieID: movie.ID, Season: 1, Number: 1}))
	err := repo.Create(&model.Episode{MovieID: movie.ID, Season: 1, Number: 1})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	require.NoError(t, repo.Create(&model.Episode{MovieID: movie.ID, Season: 2, Number: 1}))

	eps, err := repo.ListByMovie(movie.ID)
	require.NoError(t, err)
	assert.Len(t, eps, 2)
}

func TestListFiltersMatchLiterally(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)

	for _, m := range []*model.Movie{
		{Title: "100% Wolf", Slug: "wolf", Genres: "animation,comedy"},
		{Title: "1000 Wolves", Slug: "wolves", Genres: "non-action,documentary"},
		{Title: "snake_case", Slug: "snake", Genres: "Action"},
		{Title: "snakeXcase", Slug: "snakex", Genres: "thriller"},
		{Title: `back\slash`, Slug: "slash", Genres: "drama"},
	} {
		m.Type = model.MovieTypeMovie
		require.NoError(t, db.Create(m).Error)
	}

	titles := func(f repository.MovieFilter) []string {
		t.Helper()
		f.Limit = 20
		movies, total, err := repos.Movie.List(f)
		require.NoError(t, err)
		assert.Equal(t, int64(len(movies)), total)
		out := make([]string, len(movies))
		for i, m := range movies {
			out[i] = m.Title
		}
		return out
	}

	assert.ElementsMatch(t, []string{"100% Wolf"}, titles(repository.MovieFilter{Query: "%"}))
	assert.ElementsMatch(t, []string{"snake_case"}, titles(repository.MovieFilter{Query: "_"}))
	assert.ElementsMatch(t, []string{`back\slash`}, titles(repository.MovieFilter{Query: `\`}))
	assert.Len(t, titles(repository.MovieFilter{Query: "wolf"}), 2)

	assert.ElementsMatch(t, []string{"snake_case"}, titles(repository.MovieFilter{Genre: "action"}))
	assert.ElementsMatch(t, []string{"1000 Wolves"}, titles(repository.MovieFilter{Genre: "Non-Action"}))
	assert.ElementsMatch(t, []string{"100% Wolf"}, titles(repository.MovieFilter{Genre: "comedy"}))
	assert.Empty(t, titles(repository.MovieFilter{Genre: "com"}))
	assert.Empty(t, titles(repository.MovieFilter{Genre: "%"}))

	require.NoError(t, db.Create(&model.Comic{Title: "Half_Moon", Slug: "half", Author: "A%B", Genres: "fantasy,action"}).Error)
	require.NoError(t, db.Create(&model.Comic{Title: "HalfXMoon", Slug: "halfx", Author: "AxB", Genres: "fantasy-action"}).Error)

	comics, total, err := repos.Comic.List("f%m", "", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, comics)

	comics, _, err = repos.Comic.List("half_", "", 10, 0)
	require.NoError(t, err)
	require.Len(t, comics, 1)
	assert.Equal(t, "Half_Moon", comics[0].Title)

	comics, _, err = repos.Comic.List("a%", "", 10, 0)
	require.NoError(t, err)
	require.Len(t, comics, 1)
	assert.Equal(t, "A%B", comics[0].Author)

	comics, _, err = repos.Comic.List("", "action", 10, 0)
	require.NoError(t, err)
	require.Len(t, comics, 1)
	assert.Equal(t, "Half_Moon", comics[0].Title)
}

func TestComicPages(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewComicRepository(db)
	comic := testutil.CreateComic(t, db, "c")

	last, err := repo.LastPageNumber(comic.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, repo.AddPages([]*model.ComicPage{
		{ComicID: comic.ID, Chapter: 1, Number: 2, ImageURL: "b"},
		{ComicID: comic.ID, Chapter: 1, Number: 1, ImageURL: "a"},
	}))
	last, err = repo.LastPageNumber(comic.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, last)

	full, err := repo.FindWithPages(comic.ID)
	require.NoError(t, err)
	require.Len(t, full.Pages, 2)
	assert.Equal(t, "a", full.Pages[0].ImageURL)

	list, total, err := repo.List("C", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(comic.ID))
	var pages int64
	require.NoError(t, db.Model(&model.ComicPage{}).Count(&pages).Error)
	assert.Zero(t, pages)
}

func TestPointEventUniqueAtDatabaseLevel(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "u")

	assert.True(t, db.Migrator().HasIndex(&model.PointEvent{}, "idx_point_event_once"))

	first := &model.PointEvent{UserID: user.ID, Action: model.ActionWatch, RefID: 3, Points: 2}
	require.NoError(t, db.Create(first).Error)
	dup := &model.PointEvent{UserID: user.ID, Action: model.ActionWatch, RefID: 3, Points: 2}
	assert.ErrorIs(t, db.Create(dup).Error, gorm.ErrDuplicatedKey)
}

func TestGamificationRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewGamificationRepository(db)
	user := testutil.CreateUser(t, db, "u")

	total, inserted, err := repo.AddPoints(user.ID, model.ActionComment, 1, 5)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 5, total)
	total, inserted, err = repo.AddPoints(user.ID, model.ActionRating, 9, 3)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 8, total)

	// 同一对象重复记分被忽略
	total, inserted, err = repo.AddPoints(user.ID, model.ActionRating, 9, 3)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 8, total)

	_, _, err = repo.AddPoints(9999, model.ActionComment, 1, 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	counts, err := repo.ActionCounts(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.ActionComment])
	assert.Equal(t, int64(1), counts[model.ActionRating])

	badges, err := repo.ListBadges()
	require.NoError(t, err)
	require.NotEmpty(t, badges)

	ok, err := repo.AwardBadge(user.ID, badges[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AwardBadge(user.ID, badges[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	owned, err := repo.UserBadges(user.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, badges[0].Code, owned[0].Badge.Code)

	top, err := repo.TopUsers(5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 8, top[0].Points)
}
