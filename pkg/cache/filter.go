package cache

import (
	"sort"
	"strings"

	"github.com/savezy/savezy/pkg/contents"
)

// Filter narrows the cached list. Zero fields match everything.
type Filter struct {
	Kind          contents.Kind
	Category      string
	Tag           string
	FavoritesOnly bool
	// Query is matched case-insensitively against url, title, description,
	// summary, comment and directions.
	Query string
}

// Match reports whether r passes every set criterion.
func (f Filter) Match(r contents.Record) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
		return false
	}
	if f.FavoritesOnly && !r.Favorite {
		return false
	}
	if f.Tag != "" && !hasTag(r.Tags, f.Tag) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		for _, s := range []string{r.URL, r.Title, r.Description, r.Summary, r.Comment, r.Directions} {
			if strings.Contains(strings.ToLower(s), q) {
				return true
			}
		}
		return false
	}
	return true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Filter returns copies of the cached records matching f, in list order.
func (c *Cache) Filter(f Filter) []contents.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []contents.Record{}
	for _, r := range c.items {
		if f.Match(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// TagCount is a tag and the number of cached records carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Tags indexes the tags of all cached records, most used first, then by name.
func (c *Cache) Tags() []TagCount {
	c.mu.RLock()
	counts := map[string]int{}
	for _, r := range c.items {
		for _, t := range r.Tags {
			counts[t]++
		}
	}
	c.mu.RUnlock()

	out := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Categories lists the distinct categories in use, sorted.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	seen := map[string]struct{}{}
	for _, r := range c.items {
		if r.Category != "" {
			seen[r.Category] = struct{}{}
		}
	}
	c.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}
