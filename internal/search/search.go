package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Header         string `json:"header"`
	Snippet        string `json:"snippet"`
	SectionType    string `json:"sectionType"`
	Status         string `json:"status"`
	Reviewer       string `json:"reviewer"`
}

/// Query describes a search request. OrganizationID is always required:
// search never crosses tenant boundaries.
type Query struct {
	Text              string
	OrganizationID    string
	FilterStatus      string // empty = all statuses
	FilterSectionType string
	Limit             int
	Offset            int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over outlines.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push outlines into a search index.
type Indexer interface {
	IndexOutline(o OutlineRecord) error
	DeleteOutline(id string) error
}

// OutlineRecord is the data we index for an outline row.
type OutlineRecord struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Header         string `json:"header"`
	SectionType    string `json:"sectionType"`
	Status         string `json:"status"`
	Target         int    `json:"target"`
	Limit          int    `json:"limit"`
	Reviewer       string `json:"reviewer"`
}
