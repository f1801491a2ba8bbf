package output

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/prlens/prlens/internal/review"
)

// HTMLWriter renders a self-contained HTML report. Output is deterministic:
// identical comment lists produce byte-identical documents, with no
// timestamps or generated identifiers.
type HTMLWriter struct{}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { border-bottom: 2px solid #ddd; padding-bottom: 0.5rem; }
.summary { display: flex; gap: 1rem; margin: 1rem 0; }
.summary div { border: 1px solid #ddd; border-radius: 4px; padding: 0.5rem 1rem; }
.file { margin-top: 1.5rem; }
.file h2 { font-size: 1.1rem; background: #f5f5f5; padding: 0.4rem 0.6rem; }
.comment { border-left: 4px solid #ccc; margin: 0.8rem 0; padding: 0.4rem 0.8rem; }
.comment.critical { border-color: #b71c1c; }
.comment.high { border-color: #e65100; }
.comment.medium { border-color: #f9a825; }
.comment.low { border-color: #2e7d32; }
.meta { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Review type: <strong>{{.ReviewType}}</strong>, {{.Total}} issue(s)</p>
<div class="summary">
<div><strong>CRITICAL</strong>: {{.Counts.Critical}}</div>
<div><strong>HIGH</strong>: {{.Counts.High}}</div>
<div><strong>MEDIUM</strong>: {{.Counts.Medium}}</div>
<div><strong>LOW</strong>: {{.Counts.Low}}</div>
</div>
{{if not .Files}}<h2>No Issues Found</h2>
<p>The review completed without reportable issues.</p>
{{end}}{{range .Files}}<section class="file">
<h2>{{.Path}}</h2>
{{range .Comments}}<div class="comment {{.Severity}}">
<p class="meta">{{if .FileLevel}}File-level{{else}}Line {{.Line}}{{end}} | severity: {{.Severity}}{{if .Category}} | {{.Category}}{{end}}{{if .Criterion}} | WCAG {{.Criterion}}{{end}}</p>
<p><strong>Issue:</strong> {{.Issue}}</p>
{{if .Suggestion}}<p><strong>Suggestion:</strong> {{.Suggestion}}</p>
{{end}}</div>
{{end}}</section>
{{end}}</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

type reportData struct {
	Title      string
	ReviewType review.Type
	Total      int
	Counts     review.SeverityCounts
	Files      []fileGroup
}

type fileGroup struct {
	Path     string
	Comments []review.Comment
}

// Render produces the report document as a string. It implements
// review.Renderer.
func (h *HTMLWriter) Render(comments []review.Comment, t review.Type) (string, error) {
	var b strings.Builder
	if err := h.Write(&b, comments, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (h *HTMLWriter) Write(w io.Writer, comments []review.Comment, t review.Type) error {
	data := reportData{
		Title:      reportTitle(t),
		ReviewType: t,
		Total:      len(comments),
		Counts:     review.CountBySeverity(comments),
		Files:      groupByFile(comments),
	}
	if err := reportTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing report template: %w", err)
	}
	return nil
}

func reportTitle(t review.Type) string {
	if t == review.TypeAccessibility {
		return "Accessibility Review Report"
	}
	return "Code Review Report"
}

// groupByFile groups comments by file in first-seen order. Within a file,
// file-level comments come first, then line order ascending; ties keep the
// original order.
func groupByFile(comments []review.Comment) []fileGroup {
	index := make(map[string]int)
	var groups []fileGroup
	for _, c := range comments {
		i, ok := index[c.File]
		if !ok {
			i = len(groups)
			index[c.File] = i
			groups = append(groups, fileGroup{Path: c.File})
		}
		groups[i].Comments = append(groups[i].Comments, c)
	}
	for i := range groups {
		cs := groups[i].Comments
		sort.SliceStable(cs, func(a, b int) bool {
			return cs[a].Line < cs[b].Line
		})
	}
	return groups
}
