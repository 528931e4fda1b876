// Package window drives the host window: an app-mode Chrome window through
// lorca, or the system browser when Chrome is not available.
package window

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

var pages = template.Must(template.New("loading").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:system-ui,sans-serif;display:flex;align-items:center;justify-content:center;height:100vh;margin:0;color:#333}</style>
</head><body><p>Starting {{.Title}}…</p></body></html>
`))

func init() {
	template.Must(pages.New("fallback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:system-ui,sans-serif;margin:3em;color:#333}p{white-space:pre-wrap}</style>
</head><body><h1>{{.Title}} could not start</h1>
{{range .Lines}}<p>{{.}}</p>
{{end}}</body></html>
`))
}

const title = "TodoErr"

type page struct {
	Title string
	Lines []string
}

// LoadingPage is shown while the backend starts.
func LoadingPage() string {
	return render("loading", page{Title: title})
}

// FallbackPage renders message, one paragraph per line.
func FallbackPage(message string) string {
	return render("fallback", page{Title: title, Lines: strings.Split(message, "\n")})
}

// DataURL embeds an HTML document into a URL a window can load.
func DataURL(html string) string {
	return "data:text/html;charset=utf-8," + url.PathEscape(html)
}

func render(name string, p page) string {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		panic(err)
	}
	return buf.String()
}
