package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxOutlines = "captureplan_outlines"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the outline index.
// Returns a client in unhealthy state if the initial connection fails
// (caller should proceed; the health loop retries).
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	// Initial health check
	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxOutlines,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxOutlines, err)
	}

	index := m.client.Index(idxOutlines)
	filterable := []interface{}{"organizationId", "status", "sectionType"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxOutlines, err)
	}
	searchable := []string{"header", "sectionType", "reviewer"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxOutlines, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the outline index scoped to the query's organization.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}
	if q.OrganizationID == "" {
		return nil, 0, fmt.Errorf("search requires an organization id")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	filters := []string{fmt.Sprintf("organizationId = %q", q.OrganizationID)}
	if q.FilterStatus != "" {
		filters = append(filters, fmt.Sprintf("status = %q", q.FilterStatus))
	}
	if q.FilterSectionType != "" {
		filters = append(filters, fmt.Sprintf("sectionType = %q", q.FilterSectionType))
	}

	resp, err := m.client.Index(idxOutlines).Search(q.Text, &meili.SearchRequest{
		Limit:                 limit,
		Offset:                int64(q.Offset),
		Filter:                filters,
		AttributesToHighlight: []string{"*"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}

	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	return Result{
		ID:             decodeString(hit, "id"),
		OrganizationID: decodeString(hit, "organizationId"),
		Header:         firstNonBlank(decodeFormattedString(hit, "header"), decodeString(hit, "header")),
		Snippet:        firstNonBlank(decodeFormattedString(hit, "sectionType"), decodeString(hit, "sectionType")),
		SectionType:    decodeString(hit, "sectionType"),
		Status:         decodeString(hit, "status"),
		Reviewer:       decodeString(hit, "reviewer"),
	}
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexOutline adds or updates an outline in the search index.
func (m *Meili) IndexOutline(o OutlineRecord) error {
	_, err := m.client.Index(idxOutlines).AddDocuments([]OutlineRecord{o}, nil)
	return err
}

// DeleteOutline removes an outline from the search index.
func (m *Meili) DeleteOutline(id string) error {
	_, err := m.client.Index(idxOutlines).DeleteDocument(id, nil)
	return err
}

// IndexOutlines bulk-indexes outlines, used for full reindexing.
func (m *Meili) IndexOutlines(outlines []OutlineRecord) error {
	if len(outlines) == 0 {
		return nil
	}
	_, err := m.client.Index(idxOutlines).AddDocuments(outlines, nil)
	return err
}
