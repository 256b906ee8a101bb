package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rangeFor(t *testing.T, query string) (time.Time, time.Time, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/orders?"+query, nil)
	r, err := parseDateRange(c)
	return r.From, r.To, err
}

func TestParseDateRange(t *testing.T) {
	from, to, err := rangeFor(t, "startDate=2024-03-01&endDate=2024-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	// date-only end covers the whole day
	if want := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond); !to.Equal(want) {
		t.Fatalf("to = %v, want %v", to, want)
	}

	_, to, err = rangeFor(t, "endDate=2024-03-02T10:30:00%2B02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !to.Equal(time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339 end = %v", to)
	}

	from, to, err = rangeFor(t, "")
	if err != nil || !from.IsZero() || !to.IsZero() {
		t.Fatalf("empty query should be unbounded: %v %v %v", from, to, err)
	}

	if _, _, err := rangeFor(t, "startDate=03/01/2024"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
