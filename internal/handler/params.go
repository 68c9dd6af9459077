package handler

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

// parseDateParam accepts RFC3339 timestamps or bare dates.
func parseDateParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected RFC3339 or YYYY-MM-DD", raw))
}

func parseWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	from, err := parseDateParam(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDateParam(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func splitListParam(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
