package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
)

const dateOnly = "2006-01-02"

// parseDateRange reads startDate/endDate. Each accepts RFC3339 or YYYY-MM-DD (UTC);
// a date-only endDate covers that whole day.
func parseDateRange(c *gin.Context) (orders.DateRange, error) {
	var r orders.DateRange
	if s := c.Query("startDate"); s != "" {
		t, _, err := parseDate(s)
		if err != nil {
			return r, fmt.Errorf("startDate: %w", err)
		}
		r.From = t
	}
	if s := c.Query("endDate"); s != "" {
		t, wholeDay, err := parseDate(s)
		if err != nil {
			return r, fmt.Errorf("endDate: %w", err)
		}
		if wholeDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.To = t
	}
	return r, nil
}

func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q, want RFC3339 or YYYY-MM-DD", s)
	}
	return t, true, nil
}
