package email

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// markdown renders notification bodies. Raw HTML in the input is escaped
// (WithUnsafe is not set).
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var messageLayout = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,Helvetica,sans-serif;color:#222;max-width:600px;margin:0 auto;padding:24px">
<h2 style="color:#c0392b;margin-top:0">{{.Title}}</h2>
<div style="font-size:15px;line-height:1.5">{{.Body}}</div>
<p style="font-size:12px;color:#888;margin-top:32px">{{.Footer}}</p>
</body></html>`))

// RenderMarkdown converts Markdown to HTML.
func RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// RenderMessage wraps a Markdown body in the standard email layout.
// PRE: title is plain text, body is Markdown
// POST: Returns a standalone HTML document
func RenderMessage(title, body, footer string) (string, error) {
	html, err := RenderMarkdown(body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = messageLayout.Execute(&buf, struct {
		Title  string
		Body   template.HTML
		Footer string
	}{title, html, footer})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
