package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// parseDate parses an ISO date string. Empty input yields the zero time,
// which application services read as "today".
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

// formatDate renders a date-only field
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// asOfQuery reads the optional as_of query parameter
func asOfQuery(c *gin.Context) time.Time {
	t, _ := parseDate(c.Query("as_of"))
	return t
}
