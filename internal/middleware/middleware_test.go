package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
)

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("generates_request_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))
		if id := rec.Header().Get("X-Request-ID"); len(id) != 36 {
			t.Errorf("expected a generated uuid request id, got %q", id)
		}
	})

	t.Run("keeps_incoming_request_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("X-Request-ID", "0190b8a0-0000-7000-8000-000000000001")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if id := rec.Header().Get("X-Request-ID"); id != "0190b8a0-0000-7000-8000-000000000001" {
			t.Errorf("expected incoming request id kept, got %q", id)
		}
	})

	t.Run("replaces_invalid_request_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("X-Request-ID", "bad id")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if id := rec.Header().Get("X-Request-ID"); id == "bad id" {
			t.Error("expected invalid request id to be replaced")
		}
	})
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrBudgetNotFound)
	})
	r.GET("/raw", func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused"))
	})

	t.Run("app_error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
		if code := parseBody(t, rec)["code"]; code != "BUDGET_NOT_FOUND" {
			t.Errorf("expected BUDGET_NOT_FOUND, got %v", code)
		}
	})

	t.Run("unexpected_error_hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", http.NoBody))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
		body := parseBody(t, rec)
		if body["code"] != "INTERNAL_ERROR" {
			t.Errorf("expected INTERNAL_ERROR, got %v", body["code"])
		}
		if msg, _ := body["message"].(string); strings.Contains(msg, "connection refused") {
			t.Errorf("internal detail leaked: %q", msg)
		}
	})
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/presupuestos/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/presupuestos/:id", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presupuestos/abc", http.NoBody))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
}

func TestCORS(t *testing.T) {
	t.Run("preflight", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"*"}))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/test", http.NoBody))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
			t.Errorf("expected wildcard origin, got %q", origin)
		}
	})

	t.Run("listed_origin", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"https://app.example.com"}))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "https://app.example.com" {
			t.Errorf("expected listed origin echoed, got %q", origin)
		}

		req = httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://evil.example.com")
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "" {
			t.Errorf("expected no CORS header for unlisted origin, got %q", origin)
		}
	})
}
