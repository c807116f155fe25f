package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	auth := f.svc.Auth

	user, err := auth.Register(" Neo@Example.com ", "", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "neo@example.com", user.Email)
	assert.Equal(t, "neo", user.Username)
	assert.Equal(t, []string{model.RoleUser}, user.RoleNames())

	_, err = auth.Register("neo@example.com", "other", "secret1")
	assert.ErrorIs(t, err, utils.ErrConflict)

	// 用户名被占用时自动生成
	second, err := auth.Register("neo@another.org", "", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "neo", second.Username)
	assert.Contains(t, second.Username, "neo_")

	_, err = auth.Register("trinity@example.com", "neo", "secret1")
	assert.ErrorIs(t, err, utils.ErrConflict)
	_, err = auth.Register("short@example.com", "", "123")
	assert.ErrorIs(t, err, utils.ErrInvalid)

	logged, err := auth.Login("NEO@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = auth.Login("neo@example.com", "wrong")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	_, err = auth.Login("ghost@example.com", "secret1")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestLoginExternalCreatesAndLinks(t *testing.T) {
	f := newFixture(t)
	auth := f.svc.Auth
	ctx := context.Background()

	id := &ExternalIdentity{
		Provider: ProviderGoogle, Subject: "g-1", Email: "morpheus@example.com",
		EmailVerified: true, Name: "Morpheus", AvatarURL: "https://img/x.png",
	}
	created, err := auth.LoginExternal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Morpheus", created.Username)
	require.NotNil(t, created.GoogleID)
	assert.Equal(t, "g-1", *created.GoogleID)
	assert.Empty(t, created.PasswordHash)

	again, err := auth.LoginExternal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// Firebase 登录按已验证邮箱合并到同一账号
	fb, err := auth.LoginExternal(ctx, &ExternalIdentity{
		Provider: ProviderFirebase, Subject: "fb-9", Email: "MORPHEUS@example.com", EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, fb.ID)
	require.NotNil(t, fb.FirebaseUID)
	assert.Equal(t, "fb-9", *fb.FirebaseUID)

	// 第三方账号无密码，仍不能用空密码登录
	_, err = auth.Login("morpheus@example.com", "")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestLoginExternalRejectsUnverifiedEmailTakeover(t *testing.T) {
	f := newFixture(t)
	auth := f.svc.Auth
	ctx := context.Background()

	_, err := auth.Register("smith@example.com", "smith", "secret1")
	require.NoError(t, err)

	_, err = auth.LoginExternal(ctx, &ExternalIdentity{
		Provider: ProviderFirebase, Subject: "fb-x", Email: "smith@example.com", EmailVerified: false,
	})
	assert.ErrorIs(t, err, utils.ErrConflict)

	_, err = auth.LoginExternal(ctx, &ExternalIdentity{Provider: ProviderGoogle, Subject: "g-2"})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	_, err = auth.LoginExternal(ctx, &ExternalIdentity{Provider: "github", Subject: "x", Email: "a@b.c"})
	assert.ErrorIs(t, err, utils.ErrInvalid)
}

func TestProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	auth := f.svc.Auth

	user, err := auth.Register("oracle@example.com", "oracle", "secret1")
	require.NoError(t, err)
	_, err = auth.Register("seraph@example.com", "seraph", "secret1")
	require.NoError(t, err)

	_, err = auth.UpdateProfile(user.ID, "seraph", "")
	assert.ErrorIs(t, err, utils.ErrConflict)
	updated, err := auth.UpdateProfile(user.ID, "the_oracle", "https://img/o.png")
	require.NoError(t, err)
	assert.Equal(t, "the_oracle", updated.Username)
	assert.Equal(t, "https://img/o.png", updated.AvatarURL)

	assert.ErrorIs(t, auth.ChangePassword(user.ID, "wrong", "newsecret"), utils.ErrUnauthorized)
	assert.ErrorIs(t, auth.ChangePassword(user.ID, "secret1", "123"), utils.ErrInvalid)
	require.NoError(t, auth.ChangePassword(user.ID, "secret1", "newsecret"))

	_, err = auth.Login("oracle@example.com", "newsecret")
	assert.NoError(t, err)
}
