package engagement

import "strings"

// NormalizeTags trims and lowercases tags, drops empty ones and removes
// duplicates keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NormalizeTag applies the same rule to a single filter value.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
