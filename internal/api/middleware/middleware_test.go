package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learnplan/backend/config"
	"learnplan/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-0123456789",
		AccessTokenTTL: time.Minute,
	})
}

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("user-001")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserIDKey))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"缺少认证头", "", http.StatusUnauthorized, ""},
		{"格式无效", "Token " + token, http.StatusUnauthorized, ""},
		{"Token 无效", "Bearer not-a-token", http.StatusUnauthorized, ""},
		{"空 Token", "Bearer ", http.StatusUnauthorized, ""},
		{"正常", "Bearer " + token, http.StatusOK, "user-001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("状态码 = %d, 期望 %d", w.Code, tt.status)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("user_id = %q, 期望 %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestJWTAuth_QueryToken(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken("user-002")

	r := gin.New()
	handler := func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextUserIDKey)) }
	r.GET("/calendar", JWTAuth(mgr), handler)
	r.POST("/plans", JWTAuth(mgr), handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calendar?access_token="+token, nil))
	if w.Code != http.StatusOK || w.Body.String() != "user-002" {
		t.Errorf("GET 应接受查询参数 Token, got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plans?access_token="+token, nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("写请求不应接受查询参数 Token, got %d", w.Code)
	}
}

// ── RateLimit ──

type fakeStore struct {
	allowed bool
	err     error
	calls   int
}

func (s *fakeStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

func newRateLimitedRouter(store RateLimitStore, limit int) *gin.Engine {
	r := gin.New()
	r.POST("/plans", RateLimit(store, limit, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doPost(r *gin.Engine) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plans", nil))
	return w.Code
}

func TestRateLimit_StoreDenies(t *testing.T) {
	store := &fakeStore{allowed: false}
	if code := doPost(newRateLimitedRouter(store, 5)); code != http.StatusTooManyRequests {
		t.Errorf("状态码 = %d, 期望 429", code)
	}
	if store.calls != 1 {
		t.Errorf("store 调用次数 = %d, 期望 1", store.calls)
	}
}

func TestRateLimit_StoreErrorFallsBackToLocal(t *testing.T) {
	store := &fakeStore{err: errors.New("redis down")}
	r := newRateLimitedRouter(store, 2)

	if code := doPost(r); code != http.StatusNoContent {
		t.Fatalf("第 1 次状态码 = %d", code)
	}
	if code := doPost(r); code != http.StatusNoContent {
		t.Fatalf("第 2 次状态码 = %d", code)
	}
	if code := doPost(r); code != http.StatusTooManyRequests {
		t.Errorf("超出本地令牌桶后状态码 = %d, 期望 429", code)
	}
}

func TestRateLimit_NilStore(t *testing.T) {
	r := newRateLimitedRouter(nil, 1)
	if code := doPost(r); code != http.StatusNoContent {
		t.Fatalf("第 1 次状态码 = %d", code)
	}
	if code := doPost(r); code != http.StatusTooManyRequests {
		t.Errorf("状态码 = %d, 期望 429", code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if IsBodyTooLarge(err) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))
	if w.Code != http.StatusOK {
		t.Errorf("未超限状态码 = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限状态码 = %d, 期望 413", w.Code)
	}
}

// ── RequestID / CORS ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" || w.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("应沿用外部 Request-ID, got %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Body.String()) != 36 {
		t.Errorf("超长 Request-ID 应替换为 UUID, got %q", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检状态码 = %d, 期望 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("允许的源应回显 Access-Control-Allow-Origin")
	}

	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("精确匹配的源应允许凭证")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("未允许的源不应设置 Access-Control-Allow-Origin")
	}
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://any.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("通配配置应返回 *")
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("通配模式不应允许凭证")
	}
}
