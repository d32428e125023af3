package search

// Result is one normalized search hit. Every provider adapter must produce
// this shape regardless of what the upstream API calls its fields.
//
// Title, URL and Content are never "missing": an absent value is the empty
// string. URL may be empty only for provider-synthesized answer entries that
// have no canonical source. Score is always inside [0.0, 1.0].
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ClampScore confines a relevance score to the [0.0, 1.0] range shared by
// every provider so scores stay comparable across back ends.
func ClampScore(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Query is the provider-agnostic search request. Adapters translate it into
// their own wire format and ignore options the upstream API does not support.
type Query struct {
	Text string

	// MaxResults caps the number of results returned. Zero means the
	// default of 5. Paginating adapters issue as many page requests as
	// needed to satisfy it, up to their hard cap.
	MaxResults int

	// Cursor selects the first results page (0-based) for paginating
	// adapters. Non-paginating adapters ignore it.
	Cursor int

	Language  string
	Country   string
	Freshness string

	IncludeDomains []string
	ExcludeDomains []string

	// IncludeAnswer asks providers that can synthesize an LLM answer
	// (Tavily) to prepend it as an answer entry with an empty URL.
	IncludeAnswer bool
}

// DefaultMaxResults is applied when a query does not set MaxResults.
const DefaultMaxResults = 5

// Limit returns the effective result cap for the query.
func (q Query) Limit() int {
	if q.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return q.MaxResults
}
