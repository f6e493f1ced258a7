package search

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a tsquery over the outlines table using plainto_tsquery and
// ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	if q.OrganizationID == "" {
		return nil, 0, fmt.Errorf("search requires an organization id")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text, q.OrganizationID}
	argN := 3

	where := "o.fts @@ " + tsQuery + " AND o.organization_id = $2"
	if q.FilterStatus != "" {
		where += fmt.Sprintf(" AND o.status = $%d", argN)
		args = append(args, q.FilterStatus)
		argN++
	}
	if q.FilterSectionType != "" {
		where += fmt.Sprintf(" AND o.section_type = $%d", argN)
		args = append(args, q.FilterSectionType)
		argN++
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM outlines o WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT o.id, o.organization_id, o.header,
			ts_headline('english', o.header, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
			o.section_type, o.status, o.reviewer
		FROM outlines o
		WHERE %s
		ORDER BY ts_rank(o.fts, %s) DESC, o.id ASC
		LIMIT %d OFFSET %d`, tsQuery, where, tsQuery, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var id int64
		if err := rows.Scan(&id, &r.OrganizationID, &r.Header, &r.Snippet, &r.SectionType, &r.Status, &r.Reviewer); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.ID = strconv.FormatInt(id, 10)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all outline records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]OutlineRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, organization_id, header, section_type, status, target, limit_value, reviewer
		FROM outlines
	`)
	if err != nil {
		return nil, fmt.Errorf("load outlines: %w", err)
	}
	defer rows.Close()

	outlines := make([]OutlineRecord, 0)
	for rows.Next() {
		var o OutlineRecord
		var id int64
		if err := rows.Scan(&id, &o.OrganizationID, &o.Header, &o.SectionType, &o.Status, &o.Target, &o.Limit, &o.Reviewer); err != nil {
			return nil, fmt.Errorf("scan outline: %w", err)
		}
		o.ID = strconv.FormatInt(id, 10)
		outlines = append(outlines, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outlines: %w", err)
	}

	return outlines, nil
}
