package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/restaurant-orderflow/internal/handlers"
	"github.com/imrishuroy/restaurant-orderflow/internal/logging"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := setupRouter(handlers.HandlerConfig{}, logging.Discard())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}
