package report

import (
	"html/template"
	"io"
	"os"
)

// htmlTemplate renders a document as a standalone results page, one table row per
// record, mirroring the columns of the JSON export.
var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Clash Detection Results</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
th { background: #eee; }
caption { text-align: left; font-weight: bold; padding: 8px 0; }
</style>
</head>
<body>
<h1>Clash Detection Results</h1>
<p>Query {{.QueryID}}{{if .Config.Name}} ({{.Config.Name}}){{end}}, generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}.</p>
{{if .Config.Comment}}<p>{{.Config.Comment}}</p>{{end}}
<table>
<caption>Records ({{len .Records}})</caption>
<tr><th>#</th><th>Classification</th><th>Distance</th><th>Start</th><th>End</th><th>Object A</th><th>Object B</th></tr>
{{range $i, $r := .Records}}<tr><td>{{$i}}</td><td>{{$r.Classification}}</td><td>{{printf "%.6f" $r.Distance}}</td><td>{{printf "%.3f" $r.StartTime}}</td><td>{{printf "%.3f" $r.EndTime}}</td><td>{{$r.ObjectA}}</td><td>{{$r.ObjectB}}</td></tr>
{{end}}</table>
{{if .Duplicates}}
<table>
<caption>Duplicate geometry ({{len .Duplicates}})</caption>
<tr><th>#</th><th>Time</th><th>Object A</th><th>Object B</th></tr>
{{range $i, $d := .Duplicates}}<tr><td>{{$i}}</td><td>{{printf "%.3f" $d.Time}}</td><td>{{$d.ObjectA}}</td><td>{{$d.ObjectB}}</td></tr>
{{end}}</table>
{{end}}
{{if .Warnings}}
<table>
<caption>Warnings ({{len .Warnings}})</caption>
<tr><th>Path</th><th>Reason</th></tr>
{{range .Warnings}}<tr><td>{{.Path}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

// ExportHTML writes the document as a human-readable results page. HTML export is
// write-only; the JSON format is the round-trippable interchange form.
func ExportHTML(doc *Document, w io.Writer) error {
	if err := htmlTemplate.Execute(w, doc); err != nil {
		return &IOError{Op: "export", Err: err}
	}
	return nil
}

// ExportHTMLFile writes the HTML results page to a file.
func ExportHTMLFile(doc *Document, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "export", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "export", Err: cerr}
		}
	}()
	return ExportHTML(doc, f)
}
