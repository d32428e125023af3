package serpparse

import (
	"strings"

	"search-hub/internal/domain/search"
)

// PositionScore converts a 1-based SERP rank into a relevance score. The
// formula is shared by every SERP provider so scores stay comparable:
// position 1 scores 0.95, position 10 scores 0.50, position 20 and beyond
// floor at 0.0.
func PositionScore(position int) float64 {
	if position <= 0 {
		return 1.0
	}
	return search.ClampScore(1.0 - float64(position)*0.05)
}

// Parse normalizes a decoded SERP payload into results. It is deterministic
// and stateless: the same payload and config always produce the same output,
// in the provider's original order.
//
// A missing results key, or a value that is not an array, yields an empty
// list. No organic section is a valid outcome, not an error; deciding
// whether the payload was JSON at all is the adapter's job.
func Parse(raw map[string]any, cfg Config) []search.Result {
	entries := resultsArray(raw, cfg.ResultsKey)
	if len(entries) == 0 {
		return nil
	}

	results := make([]search.Result, 0, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		url := firstString(entry, cfg.URLKeys)
		content := firstString(entry, cfg.DescriptionKeys)
		if url == "" && content == "" {
			continue
		}

		score := 1.0
		if cfg.UsePositionScoring {
			if pos, ok := intField(entry, cfg.PositionKey); ok {
				score = PositionScore(pos)
			}
		}
		results = append(results, search.Result{
			Title:   stringField(entry, "title"),
			URL:     url,
			Content: content,
			Score:   score,
		})
	}
	return results
}

// resultsArray walks a dot-separated path through nested objects to the
// organic results array.
func resultsArray(raw map[string]any, path string) []any {
	if path == "" {
		return nil
	}
	current := any(raw)
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = obj[key]
		if !ok {
			return nil
		}
	}
	arr, _ := current.([]any)
	return arr
}

func firstString(entry map[string]any, keys []string) string {
	for _, key := range keys {
		if s := stringField(entry, key); s != "" {
			return s
		}
	}
	return ""
}

func stringField(entry map[string]any, key string) string {
	s, _ := entry[key].(string)
	return s
}

// intField reads a rank that json decoding may have produced as a float.
func intField(entry map[string]any, key string) (int, bool) {
	switch v := entry[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
