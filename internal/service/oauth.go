package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider Google OAuth 授权码流程
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// FirebaseVerifier 校验 Firebase ID Token
type FirebaseVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

// GoogleOAuth 基于 golang.org/x/oauth2 的 Google 登录
type GoogleOAuth struct {
	conf *oauth2.Config
}

// NewGoogleOAuth 创建 Google 登录，未配置 client id 时返回 nil
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &GoogleOAuth{conf: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("交换授权码失败: %w", err)
	}

	resp, err := g.conf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("获取 Google 用户信息失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取 Google 用户信息失败: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("解析 Google 用户信息失败: %w", err)
	}

	return &ExternalIdentity{
		Provider:      ProviderGoogle,
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		AvatarURL:     info.Picture,
	}, nil
}

// FirebaseAuth 使用 Firebase Admin SDK 校验 ID Token
type FirebaseAuth struct {
	client *fbauth.Client
}

// NewFirebaseAuth 使用服务账号凭证创建 Firebase 客户端
func NewFirebaseAuth(ctx context.Context, credentialsFile string) (*FirebaseAuth, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("初始化 Firebase 失败: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化 Firebase Auth 失败: %w", err)
	}
	return &FirebaseAuth{client: client}, nil
}

func (f *FirebaseAuth) Verify(ctx context.Context, idToken string) (*ExternalIdentity, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	claim := func(name string) string {
		v, _ := token.Claims[name].(string)
		return v
	}
	verified, _ := token.Claims["email_verified"].(bool)
	return &ExternalIdentity{
		Provider:      ProviderFirebase,
		Subject:       token.UID,
		Email:         claim("email"),
		EmailVerified: verified,
		Name:          claim("name"),
		AvatarURL:     claim("picture"),
	}, nil
}
