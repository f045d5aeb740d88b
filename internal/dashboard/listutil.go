package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"era-admin-console/internal/view"
)

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit  int
	offset int
	q      string
}

// parseListParams parses limit, offset and q from the request
// Defaults: limit=50 (max 200), offset=0
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := 50
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:  limit,
		offset: offset,
		q:      strings.TrimSpace(values.Get("q")),
	}
}

// page slices items to the requested window.
func page[T any](items []T, p listParams) []T {
	if p.offset >= len(items) {
		return []T{}
	}
	end := p.offset + p.limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.offset:end]
}

// parsePeriod reads year and month. With neither set the current month is
// selected; a year alone, or month=all, selects the whole year.
func parsePeriod(r *http.Request, now time.Time) (view.Period, error) {
	values := r.URL.Query()
	yearStr := strings.TrimSpace(values.Get("year"))
	monthStr := strings.ToLower(strings.TrimSpace(values.Get("month")))

	if yearStr == "" && monthStr == "" {
		return view.CurrentPeriod(now), nil
	}

	p := view.Period{Year: now.Year()}
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1900 || y > 9999 {
			return p, fmt.Errorf("invalid year %q", yearStr)
		}
		p.Year = y
	}
	switch monthStr {
	case "", "0", "all":
	default:
		m, err := strconv.Atoi(monthStr)
		if err != nil || m < 1 || m > 12 {
			return p, fmt.Errorf("invalid month %q", monthStr)
		}
		p.Month = time.Month(m)
	}
	return p, nil
}
