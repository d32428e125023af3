package providers

import (
	"context"

	"search-hub/internal/domain/search"
)

const (
	// serpPageSize is the number of organic results one Google SERP page
	// carries.
	serpPageSize = 20

	// serpHardCap bounds total results per search across pages.
	serpHardCap = 180
)

// paginate drives a SERP adapter through sequential page requests until the
// query limit is satisfied, a short page signals the end of results, or the
// hard cap is reached. The cursor selects the first page; results are
// concatenated in page order and trimmed to the limit.
//
// Rate-limit spacing between pages comes from the fetch function itself,
// which claims a pool slot per request.
func paginate(ctx context.Context, q search.Query, fetch func(ctx context.Context, start int) ([]search.Result, error)) ([]search.Result, error) {
	limit := q.Limit()
	if limit > serpHardCap {
		limit = serpHardCap
	}

	start := q.Cursor * serpPageSize
	var out []search.Result
	for len(out) < limit && start < serpHardCap {
		page, err := fetch(ctx, start)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < serpPageSize {
			break
		}
		start += serpPageSize
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
