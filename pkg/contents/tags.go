package contents

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeTags serializes tags into the single text column. A nil or empty list is
// stored as an empty JSON array so the row still round-trips to [].
func EncodeTags(tags []string) (sql.NullString, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// DecodeTags parses the tags column. NULL and empty values yield an empty list.
func DecodeTags(col sql.NullString) ([]string, error) {
	tags := []string{}
	if !col.Valid || strings.TrimSpace(col.String) == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(col.String), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags %q: %w", col.String, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// NormalizeTags trims whitespace, drops empty tags and removes duplicates,
// keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		t := strings.TrimSpace(tag)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag list as typed on a command line.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(s, ","))
}
