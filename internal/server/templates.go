package server

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
)

const indexTemplate = `{{define "index"}}<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
    <title>{{.Title}}</title>
  </head>
  <body>
    <nav>
      {{range $i, $c := .Crumbs}}{{if $i}} / {{end}}<a href="{{$c.Href}}">{{$c.Name}}</a>{{end}}
    </nav>
    <form method="get" action="/">
      <input type="hidden" name="path" value="{{.Path}}">
      <input type="search" name="q" value="{{.Query}}" placeholder="Search">
      <label><input type="checkbox" name="hidden" value="true"{{if .ShowHidden}} checked{{end}}> hidden</label>
      <button type="submit">Search</button>
    </form>
    {{if .Searching}}
      <h3>Results for "{{.Query}}"{{if .Truncated}} (first {{len .Entries}} shown){{end}}</h3>
    {{else}}
      <h3>{{.Title}}</h3>
    {{end}}
    <form method="post" action="/download-multiple">
      <input type="hidden" name="current_path" value="{{.Path}}">
      <table>
        <tr><th></th><th>Name</th><th>Size</th><th>Modified</th></tr>
        {{range .Entries}}
          <tr>
            <td><input type="checkbox" name="files[]" value="{{.SelectValue}}"></td>
            {{if .IsDir}}
              <td><a href="{{.Href}}">{{.Name}}/</a>{{if .Location}} <small>{{.Location}}</small>{{end}}</td>
              <td></td>
            {{else}}
              <td><a href="{{.Href}}">{{.Name}}</a>{{if .Location}} <small>{{.Location}}</small>{{end}}</td>
              <td>{{size .Size}}</td>
            {{end}}
            <td>{{date .ModifiedAt}}</td>
          </tr>
        {{end}}
      </table>
      <button type="submit">Download selected</button>
      <a href="{{.DownloadAllHref}}">Download folder</a>
    </form>
    <form method="post" action="/upload" enctype="multipart/form-data">
      <input type="hidden" name="current_path" value="{{.Path}}">
      <input type="file" name="files" multiple>
      <button type="submit">Upload</button>
    </form>
  </body>
</html>{{end}}`

const errorTemplate = `{{define "error"}}<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
    <title>{{.Status}}</title>
  </head>
  <body>
    <h1>{{.Status}}</h1>
    <p>{{.Message}}</p>
    <a href="/">Back to root</a>
  </body>
</html>{{end}}`

type indexPageData struct {
	Title           string
	Path            string
	Crumbs          []crumb
	Entries         []entryView
	Query           string
	Searching       bool
	Truncated       bool
	ShowHidden      bool
	DownloadAllHref string
}

type entryView struct {
	Name        string
	Href        string
	SelectValue string
	Location    string
	IsDir       bool
	Size        int64
	ModifiedAt  time.Time
}

type errorPageData struct {
	Status  int
	Message string
}

var templateFuncs = template.FuncMap{
	"size": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	},
	"date": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
}

func newTemplates() (*template.Template, error) {
	tmpl := template.New("pages").Funcs(templateFuncs)
	for _, text := range []string{indexTemplate, errorTemplate} {
		if _, err := tmpl.Parse(text); err != nil {
			return nil, err
		}
	}

	return tmpl, nil
}
