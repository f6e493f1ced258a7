package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var planTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"statusClass": func(status string) string {
			return "status-" + strings.ToLower(strings.ReplaceAll(status, "_", "-"))
		},
		"displaySection": displaySectionType,
	}

	planTemplate = template.Must(template.New("plan").Funcs(funcMap).Parse(planHTMLTemplate))
}

// TemplateData holds data for capture plan template rendering
type TemplateData struct {
	OrganizationName string
	GeneratedAt      time.Time
	Rows             []TemplateRow
}

// TemplateRow holds one outline row for the template
type TemplateRow struct {
	Header      string
	SectionType string
	Status      string
	Target      int
	Limit       int
	Reviewer    string
}

// displaySectionType turns TECHNICAL_APPROACH into "Technical Approach".
func displaySectionType(sectionType string) string {
	words := strings.Split(strings.ToLower(sectionType), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RenderPlanHTML renders the capture plan template with provided data
func RenderPlanHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const planHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.OrganizationName}} Capture Plan</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 800px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #1d4ed8; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
    th { text-align: left; background: #f1f5f9; padding: 8px; border-bottom: 2px solid #cbd5e1; font-size: 0.85em; text-transform: uppercase; }
    td { padding: 8px; border-bottom: 1px solid #e2e8f0; font-size: 0.95em; }
    .status { display: inline-block; padding: 2px 8px; border-radius: 4px; font-size: 0.8em; }
    .status-pending { background: #fef9c3; }
    .status-in-progress { background: #dbeafe; }
    .status-completed { background: #dcfce7; }
    .num { text-align: right; }
    .empty { color: #999; font-style: italic; padding: 2rem 0; text-align: center; }
  </style>
</head>
<body>
  <h1>{{.OrganizationName}} Capture Plan</h1>
  <div class="meta">Generated {{formatDate .GeneratedAt "Jan 2, 2006 15:04 MST"}}</div>
  {{if .Rows}}
  <table>
    <thead>
      <tr>
        <th>Header</th>
        <th>Section</th>
        <th>Status</th>
        <th class="num">Target</th>
        <th class="num">Limit</th>
        <th>Reviewer</th>
      </tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr>
        <td>{{.Header}}</td>
        <td>{{displaySection .SectionType}}</td>
        <td><span class="status {{statusClass .Status}}">{{.Status}}</span></td>
        <td class="num">{{.Target}}</td>
        <td class="num">{{.Limit}}</td>
        <td>{{.Reviewer}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  {{else}}
  <p class="empty">This capture plan has no outline rows yet.</p>
  {{end}}
</body>
</html>`
