package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{AppEnv: "test", HTTPRateLimitPerMin: 1000}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFailMapsViolations(t *testing.T) {
	r := gin.New()
	r.GET("/rule", func(c *gin.Context) {
		Fail(c, fmt.Errorf("wrap: %w", common.RuleViolation(common.CodeNoRedeemableCredits, "Нет кредитов.")))
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, common.NotFound(common.CodeStudentNotFound, "Нет студента"))
	})
	r.GET("/storage", func(c *gin.Context) {
		Fail(c, errors.New("connection refused"))
	})

	cases := []struct {
		path   string
		status int
		detail string
	}{
		{"/rule", http.StatusBadRequest, "Нет кредитов."},
		{"/missing", http.StatusNotFound, "Нет студента"},
		{"/storage", http.StatusInternalServerError, "Внутренняя ошибка, повторите запрос позже."},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, tc.path)
		assert.Equal(t, tc.detail, decode(t, rec)["detail"], tc.path)
	}
}

func TestPage(t *testing.T) {
	cases := []struct {
		query         string
		limit, offset int
		code          string
	}{
		{"", DefaultPageLimit, 0, ""},
		{"?limit=10&offset=20", 10, 20, ""},
		{"?limit=100", 100, 0, ""},
		{"?limit=0", 0, 0, common.CodeInvalidPagination},
		{"?limit=101", 0, 0, common.CodeInvalidPagination},
		{"?offset=-1", 0, 0, common.CodeInvalidPagination},
		{"?limit=abc", 0, 0, common.CodeInvalidPagination},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)

		limit, offset, err := Page(c)
		if tc.code != "" {
			assert.True(t, common.HasCode(err, tc.code), "query %q: %v", tc.query, err)
			continue
		}
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.limit, limit, tc.query)
		assert.Equal(t, tc.offset, offset, tc.query)
	}
}

func TestParseUUID(t *testing.T) {
	_, err := ParseUUID("student_id", "not-a-uuid")
	assert.True(t, common.HasCode(err, common.CodeInvalidInput))

	id, err := ParseUUID("student_id", "0b9b7c2e-3f7a-4c8e-9d1e-2a6b5c4d3e2f")
	require.NoError(t, err)
	assert.Equal(t, "0b9b7c2e-3f7a-4c8e-9d1e-2a6b5c4d3e2f", id.String())
}

func TestHealth(t *testing.T) {
	ok := NewRouter(testConfig(), pingerFunc(func(context.Context) error { return nil }))
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	down := NewRouter(testConfig(), pingerFunc(func(context.Context) error { return errors.New("db down") }))
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(common.NewKeyedLimiter[string](2, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRecoveryReturns500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerReportsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.HTTPAddr = busy.Addr().String()
	srv := NewServer(cfg, http.NotFoundHandler())

	select {
	case err, ok := <-srv.Start():
		require.True(t, ok)
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ошибка занятого порта не дошла до вызывающего")
	}
}

func TestServerShutdownClosesErrorChannel(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	srv := NewServer(cfg, http.NotFoundHandler())
	errc := srv.Start()

	// даём горутине дойти до ListenAndServe
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case err, ok := <-errc:
		assert.False(t, ok, "неожиданная ошибка: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("канал ошибок не закрыт после Shutdown")
	}
}
