package jwt

import (
	"errors"
	"testing"
	"time"

	"lhoraire/backend/config"
)

func newTestManager(accessTTL time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-at-least-16-chars",
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func TestManager_GenerateAndParse(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	token, err := m.GenerateAccessToken("user-1", "admin", "team-1")
	if err != nil {
		t.Fatalf("生成 AccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("期望 user_id=user-1，实际=%s", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("期望 role=admin，实际=%s", claims.Role)
	}
	if claims.TeamID != "team-1" {
		t.Errorf("期望 team_id=team-1，实际=%s", claims.TeamID)
	}
	if claims.TokenType != "access" {
		t.Errorf("期望 token_type=access，实际=%s", claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("jti 不应为空")
	}
}

func TestManager_RefreshTokenType(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	token, err := m.GenerateRefreshToken("user-1", "member", "team-1")
	if err != nil {
		t.Fatalf("生成 RefreshToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("期望 token_type=refresh，实际=%s", claims.TokenType)
	}
}

func TestManager_ExpiredToken(t *testing.T) {
	m := newTestManager(-1 * time.Minute) // 生成即过期

	token, err := m.GenerateAccessToken("user-1", "member", "team-1")
	if err != nil {
		t.Fatalf("生成 AccessToken 失败: %v", err)
	}

	_, err = m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestManager_InvalidToken(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	if _, err := m.ParseToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}

	// 不同密钥签发的 Token 也应判定无效
	other := NewManager(&config.AuthConfig{
		JWTSecret:       "another-secret-16-chars-long",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	token, _ := other.GenerateAccessToken("user-1", "member", "team-1")
	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}
