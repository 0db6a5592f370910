package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWithFields(t *testing.T) {
	t.Run("fields accumulate across calls", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithFields(ctx, Field{"campaign_id", "c-1"})
		ctx = WithFields(ctx, Field{"recipient_id", "r-1"}, Field{"condition_id", "cond-1"})

		fields := getObservabilityFields(ctx)
		if len(fields) != 3 {
			t.Fatalf("got %d fields, want 3", len(fields))
		}
		if fields[0].Key != "campaign_id" || fields[2].Key != "condition_id" {
			t.Errorf("fields out of order: %+v", fields)
		}
	})

	t.Run("empty context yields no fields", func(t *testing.T) {
		if fields := getObservabilityFields(context.Background()); fields != nil {
			t.Errorf("got %+v, want nil", fields)
		}
	})
}

func TestMergeFields(t *testing.T) {
	ctx := WithFields(context.Background(),
		Field{"request_id", "req-1"},
		Field{"status", "pending"})

	merged := mergeFields(ctx, []MetricField{
		{"status", "completed"},
		{"latency", 42},
	})

	if len(merged) != 3 {
		t.Fatalf("got %d fields, want 3 (duplicates collapsed)", len(merged))
	}

	byKey := make(map[string]string)
	for _, f := range merged {
		byKey[f.Key] = f.String
	}
	if byKey["status"] != "completed" {
		t.Errorf("metric field should win over context field, got %q", byKey["status"])
	}
}

func TestMiddlewareRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := NewLogger()

	t.Run("generates request id when absent", func(t *testing.T) {
		router := gin.New()
		router.Use(Middleware(logger))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		got := w.Header().Get("X-Request-ID")
		if got == "" {
			t.Fatal("expected X-Request-ID header to be set")
		}
		if !strings.HasPrefix(got, "req-") {
			t.Errorf("generated request id %q missing req- prefix", got)
		}
	})

	t.Run("preserves caller-supplied request id", func(t *testing.T) {
		router := gin.New()
		router.Use(Middleware(logger))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-caller-supplied")
		router.ServeHTTP(w, req)

		if got := w.Header().Get("X-Request-ID"); got != "req-caller-supplied" {
			t.Errorf("got %q, want req-caller-supplied", got)
		}
	})

	t.Run("recovers from panic with 500", func(t *testing.T) {
		router := gin.New()
		router.Use(Middleware(logger))
		router.GET("/boom", func(c *gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("got status %d, want 500", w.Code)
		}
	})
}
