package mailview

import (
	"bytes"
	"html/template"
	"io"
)

var headerTemplate = template.Must(template.New("header").Parse(
	`{{define "node"}}` +
		`{{if .IsGrid}}<dl class="email-header">{{range .Children}}{{template "node" .}}{{end}}</dl>` +
		`{{else if .IsCell}}<div class="cell xs-{{.Width}}">{{range .Children}}{{template "node" .}}{{end}}</div>` +
		`{{else if .IsLabel}}<dt class="subtitle2">{{.Text}}</dt>` +
		`{{else}}<dd class="body1">{{.Text}}</dd>{{end}}` +
		`{{end}}` +
		`{{template "node" .}}`,
))

// RenderHeader writes a header layout tree as HTML.
func RenderHeader(w io.Writer, n Node) error {
	return headerTemplate.Execute(w, n)
}

// RenderHeaderHTML builds and renders the header of record for embedding
// into a page template.
func RenderHeaderHTML(record EmailRecord) (template.HTML, error) {
	view, err := HeaderView(record)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := RenderHeader(&buf, view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
