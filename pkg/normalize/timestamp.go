package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Accepted timestamp layouts, tried in order after a trailing "Z" has been
// rewritten to "+00:00".
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
}

// Timestamp parses an ISO-8601 timestamp and returns it in UTC. A nil or blank
// input yields nil. Timestamps without a zone are taken as UTC.
func Timestamp(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if strings.HasSuffix(v, "Z") {
		v = strings.TrimSuffix(v, "Z") + "+00:00"
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, *s)
}
