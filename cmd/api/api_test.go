package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pettopia/pettopia-server/cmd/config"
	"github.com/sirupsen/logrus"
)

func testHandler(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewApiServer(cfg, nil, nil, logger).Handler(ctx)
}

func baseConfig() config.Config {
	return config.Config{
		CommunityAPIURL:    "http://127.0.0.1:1",
		HTTPTimeout:        time.Second,
		TrendingWindowDays: 7,
		TrendingLimit:      5,
		PageSize:           10,
		CorsAllowedOrigins: []string{"*"},
		RateLimitRPS:       100,
		RateLimitBurst:     100,
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler(t, baseConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response carries no request id")
	}
}

func TestCategoriesAndCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/community/categories", nil)
	req.Header.Set("Origin", "https://h5.zalo.me")
	rec := httptest.NewRecorder()
	testHandler(t, baseConfig()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	var categories []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil || len(categories) != 6 {
		t.Errorf("categories = %s (%v)", rec.Body, err)
	}
}

func TestUpstreamDownMapsToBadGateway(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler(t, baseConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/community/posts", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	h := testHandler(t, cfg)

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}
