package corpus

import (
	"strconv"
	"strings"

	"github.com/hyperjump/paperbox/internal/models"
)

// ParseIDs parses a comma-separated id list such as "1,4,9". Blank input yields nil.
func ParseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, models.InvalidArgumentf("ids", "invalid document id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatIDs joins ids with commas.
func FormatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
