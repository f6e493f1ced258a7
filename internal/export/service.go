package export

import (
	"context"
	"fmt"
	"time"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetOrganizationName(ctx context.Context, id string) (string, error)
	ListOutlineRows(ctx context.Context, organizationID string) ([]OutlineRow, error)
}

// OutlineRow holds one outline row for export
type OutlineRow struct {
	Header      string
	SectionType string
	Status      string
	Target      int
	Limit       int
	Reviewer    string
}

// Service provides capture plan export functionality
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export of an organization's capture plan in the requested format.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	orgName, err := s.store.GetOrganizationName(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}

	rows, err := s.store.ListOutlineRows(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list outlines: %w", err)
	}

	data := TemplateData{
		OrganizationName: orgName,
		GeneratedAt:      time.Now(),
		Rows:             make([]TemplateRow, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, TemplateRow{
			Header:      row.Header,
			SectionType: row.SectionType,
			Status:      row.Status,
			Target:      row.Target,
			Limit:       row.Limit,
			Reviewer:    row.Reviewer,
		})
	}

	html, err := RenderPlanHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, orgName+" Capture Plan")
	case FormatDOCX:
		return exportDOCX(html, orgName+" Capture Plan")
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
