package codegen

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BuildTimeFromEnv reads SOURCE_DATE_EPOCH. Unset yields the zero time,
// which leaves the build line out of generated headers.
func BuildTimeFromEnv() (time.Time, error) {
	raw := strings.TrimSpace(os.Getenv("SOURCE_DATE_EPOCH"))
	if raw == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("SOURCE_DATE_EPOCH=%q: %w", raw, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}
