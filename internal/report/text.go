package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/journalbrand/reqtrace/internal/validate"
)

type textRenderer struct{}

var textTemplate = template.Must(template.New("report").Parse(`== Requirements Traceability Report ==
{{ range .Checks }}
[{{ if .Passed }}PASS{{ else }}FAIL{{ end }}] {{ .Name }}{{ if not .Passed }} ({{ .ErrorCount }} error(s)){{ end }}
{{- range .Findings }}
    {{ .Severity }} {{ .Kind }} {{ .Message }}
{{- end }}
{{- end }}
{{ if .Warnings }}
Warnings:
{{- range .Warnings }}
    {{ . }}
{{- end }}
{{ end }}
Requirements: {{ .Requirements }}
Test mappings: {{ .Mappings }}
Components: {{ .Components }}
Total errors: {{ .TotalErrors }}
Overall: {{ if .Passed }}PASS{{ else }}FAIL{{ end }}
`))

func (r *textRenderer) Render(result *validate.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, result); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return buf.Bytes(), nil
}
