package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lounge-pos-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// parseTime accepts RFC3339 or a bare date. A bare date used as the upper
// bound of a range covers the whole day.
func parseTime(q url.Values, field string, endOfDay bool) (*time.Time, error) {
	raw := q.Get(field)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseRange(q url.Values) (*time.Time, *time.Time, error) {
	from, err := parseTime(q, "from", false)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseTime(q, "to", true)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.NewValidationError("to", "must not be before from")
	}
	return from, to, nil
}

func parseInt32(q url.Values, field string) (int32, error) {
	raw := q.Get(field)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(field, "must be a non-negative integer")
	}
	return int32(n), nil
}

func parsePage(q url.Values) (int32, int32, error) {
	page, err := parseInt32(q, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := parseInt32(q, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// parseStatuses splits a comma-separated status list.
func parseStatuses(raw string) ([]domain.OrderStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var statuses []domain.OrderStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status := domain.OrderStatus(part)
		if status != domain.OrderStatusPaid {
			if _, err := domain.ParseOrderStatus(part); err != nil {
				return nil, err
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "malformed JSON: "+err.Error())
	}
	return nil
}
