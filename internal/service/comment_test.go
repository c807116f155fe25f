package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/testutil"
	"github.com/user/reelverse/internal/utils"
)

func TestBuildTree(t *testing.T) {
	roots := []*model.Comment{{ID: 2}, {ID: 1}}
	replies := []*model.Comment{
		{ID: 3, ParentID: uintPtr(1)},
		{ID: 4, ParentID: uintPtr(3)},
		{ID: 5, ParentID: uintPtr(1)},
		{ID: 6, ParentID: uintPtr(99)},
	}

	tree := BuildTree(roots, replies)
	require.Len(t, tree, 2)
	assert.Equal(t, uint(2), tree[0].ID)
	assert.Empty(t, tree[0].Replies)

	require.Len(t, tree[1].Replies, 2)
	assert.Equal(t, uint(3), tree[1].Replies[0].ID)
	assert.Equal(t, uint(5), tree[1].Replies[1].ID)
	require.Len(t, tree[1].Replies[0].Replies, 1)
	assert.Equal(t, uint(4), tree[1].Replies[0].Replies[0].ID)
}

func TestCommentCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.Comments
	user := testutil.CreateUser(t, f.db, "u")
	movie := testutil.CreateMovie(t, f.db, "m")
	ep := testutil.CreateEpisode(t, f.db, movie.ID, 1)
	target := repository.CommentTarget{EpisodeID: uintPtr(ep.ID)}

	root, err := svc.Create(ctx, user.ID, target, "<b>great</b> <script>alert(1)</script>episode", nil)
	require.NoError(t, err)
	assert.Equal(t, "great episode", root.Content)
	require.NotNil(t, root.User)
	assert.Equal(t, "u", root.User.Username)

	reply, err := svc.Create(ctx, user.ID, target, "agreed", &root.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, target, "deeper", &reply.ID)
	require.NoError(t, err)

	page, err := svc.ListByTarget(target, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	require.Len(t, page.Items[0].Replies, 1)
	require.Len(t, page.Items[0].Replies[0].Replies, 1)
	assert.Equal(t, "deeper", page.Items[0].Replies[0].Replies[0].Content)

	single, err := svc.Get(reply.ID)
	require.NoError(t, err)
	require.Len(t, single.Replies, 1)

	points, err := f.repos.Gamification.UserPoints(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, points)
}

func TestCommentListPagesCarryOwnReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.Comments
	user := testutil.CreateUser(t, f.db, "u")
	movie := testutil.CreateMovie(t, f.db, "m")
	ep := testutil.CreateEpisode(t, f.db, movie.ID, 1)
	target := repository.CommentTarget{EpisodeID: uintPtr(ep.ID)}

	older, err := svc.Create(ctx, user.ID, target, "older", nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.Create(ctx, user.ID, target, "reply to older", &older.ID)
		require.NoError(t, err)
	}
	newer, err := svc.Create(ctx, user.ID, target, "newer", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, target, "reply to newer", &newer.ID)
	require.NoError(t, err)

	first, err := svc.ListByTarget(target, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Total)
	require.Len(t, first.Items, 1)
	assert.Equal(t, newer.ID, first.Items[0].ID)
	require.Len(t, first.Items[0].Replies, 1)
	assert.Equal(t, "reply to newer", first.Items[0].Replies[0].Content)

	second, err := svc.ListByTarget(target, 1, 1)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, older.ID, second.Items[0].ID)
	assert.Len(t, second.Items[0].Replies, 3)

	empty, err := svc.ListByTarget(target, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestCommentCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.Comments
	user := testutil.CreateUser(t, f.db, "u")
	movie := testutil.CreateMovie(t, f.db, "m")
	ep1 := testutil.CreateEpisode(t, f.db, movie.ID, 1)
	ep2 := testutil.CreateEpisode(t, f.db, movie.ID, 2)
	comic := testutil.CreateComic(t, f.db, "c")

	t1 := repository.CommentTarget{EpisodeID: uintPtr(ep1.ID)}
	t2 := repository.CommentTarget{EpisodeID: uintPtr(ep2.ID)}

	_, err := svc.Create(ctx, user.ID, t1, "   ", nil)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Create(ctx, user.ID, t1, "<script>only script</script>", nil)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Create(ctx, user.ID, t1, strings.Repeat("长", MaxCommentLength+1), nil)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Create(ctx, user.ID, t1, strings.Repeat("长", MaxCommentLength), nil)
	assert.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, repository.CommentTarget{EpisodeID: uintPtr(999)}, "hi", nil)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	parent, err := svc.Create(ctx, user.ID, t1, "parent", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.ID, t2, "wrong episode", &parent.ID)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Create(ctx, user.ID, repository.CommentTarget{ComicID: uintPtr(comic.ID)}, "wrong kind", &parent.ID)
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Create(ctx, user.ID, t1, "missing parent", uintPtr(12345))
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestCommentPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.svc.Comments
	author := testutil.CreateUser(t, f.db, "author")
	other := testutil.CreateUser(t, f.db, "other")
	mod := testutil.CreateUser(t, f.db, "mod", model.RoleModerator)
	comic := testutil.CreateComic(t, f.db, "c")
	target := repository.CommentTarget{ComicID: uintPtr(comic.ID)}

	root, err := svc.Create(ctx, author.ID, target, "root", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other.ID, target, "reply", &root.ID)
	require.NoError(t, err)

	_, err = svc.Update(Actor{UserID: other.ID}, root.ID, "hijack")
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = svc.Update(Actor{UserID: mod.ID, Roles: []string{model.RoleModerator}}, root.ID, "moderated")
	assert.ErrorIs(t, err, utils.ErrForbidden, "only the author edits")

	updated, err := svc.Update(Actor{UserID: author.ID}, root.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = svc.Delete(Actor{UserID: other.ID}, root.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	n, err := svc.Delete(Actor{UserID: mod.ID, Roles: []string{model.RoleModerator}}, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.Delete(Actor{UserID: author.ID}, root.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
