package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anime-shed/image-filter-go/internal/logger"

	"github.com/gin-gonic/gin"
)

func requestIDRouter(seen *string) *gin.Engine {
	r := gin.New()
	r.Use(requestID())
	r.GET("/", func(c *gin.Context) {
		*seen = logger.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"caller supplied", "abc-123"},
		{"generated", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			requestIDRouter(&seen).ServeHTTP(w, req)

			if tt.incoming != "" && seen != tt.incoming {
				t.Errorf("Expected request id %q in context, got %q", tt.incoming, seen)
			}
			if seen == "" {
				t.Error("Expected a request id in the request context")
			}
			if got := w.Header().Get(requestIDHeader); got != "" {
				t.Errorf("Expected no request id response header, got %q", got)
			}
		})
	}
}
