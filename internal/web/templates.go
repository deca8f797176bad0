package web

import (
	"html/template"
	"log"
	"net/http"

	"tagsheet/internal/storage/sqlite"
)

type homeView struct {
	Error        string
	SystemPrompt string
}

type columnView struct {
	Index             int
	Name              string
	Tags              string
	NeedsInstructions bool
}

type previewView struct {
	Filename     string
	Original     string
	KeywordCount int
	Brands       string
	Columns      []columnView
	SystemPrompt string
	BatchSize    int
}

type successView struct {
	DownloadName  string
	Processed     int
	FailedBatches int
	TotalBatches  int
}

type jobsView struct {
	Jobs []sqlite.Job
}

func render(w http.ResponseWriter, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		log.Printf("web render %s: %v", t.Name(), err)
	}
}

const pageHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Tagsheet</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; color: #1f1f1f; }
textarea { width: 100%; font-family: monospace; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.6em; text-align: left; }
.error { color: #b00020; }
.warn { color: #8a6d00; }
</style>
</head>
<body>
<h1>Tagsheet</h1>
`

var homeTmpl = template.Must(template.New("home").Parse(pageHead + `
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<p>Upload a CSV or XLSX file. Column 1: keywords, column 2: brands, further
columns: tag vocabularies (or leave blank to let the model propose tags).</p>
<form method="post" action="/" enctype="multipart/form-data">
<p><input type="file" name="file" accept=".csv,.xlsx,.xlsm"></p>
<p><label>Classification rules (editable):</label><br>
<textarea name="system_prompt" rows="14">{{.SystemPrompt}}</textarea></p>
<p><button type="submit">Upload and preview</button></p>
</form>
<p><a href="/jobs">Recent jobs</a></p>
</body></html>`))

var previewTmpl = template.Must(template.New("preview").Parse(pageHead + `
<h2>Preview: {{.Original}}</h2>
<p>{{.KeywordCount}} keywords. Brands: {{.Brands}}</p>
<form method="post" action="/process/{{.Filename}}">
<table>
<tr><th>Column</th><th>Mode</th><th>Tags / instructions</th></tr>
{{range .Columns}}
<tr>
<td>{{.Name}}</td>
{{if .NeedsInstructions}}
<td>instruction-only</td>
<td>
<input type="hidden" name="instruction_col_name_{{.Index}}" value="{{.Name}}">
<input type="text" name="instruction_{{.Index}}" size="60" placeholder="optional guidance for this column">
</td>
{{else}}
<td>predefined tags</td>
<td>{{.Tags}}</td>
{{end}}
</tr>
{{end}}
</table>
<p><label>Batch size: <input type="number" name="batch_size" value="{{.BatchSize}}" min="1"></label></p>
<p><label>Classification rules:</label><br>
<textarea name="system_prompt" rows="14">{{.SystemPrompt}}</textarea></p>
<p><button type="submit">Classify</button></p>
</form>
</body></html>`))

var successTmpl = template.Must(template.New("success").Parse(pageHead + `
<h2>Done</h2>
<p>{{.Processed}} rows written across {{.TotalBatches}} batches.</p>
{{if .FailedBatches}}<p class="warn">{{.FailedBatches}} batch(es) failed and were written with blank tags.</p>{{end}}
<p><a href="/download/{{.DownloadName}}">Download {{.DownloadName}}</a></p>
<p><a href="/">Classify another file</a></p>
</body></html>`))

var jobsTmpl = template.Must(template.New("jobs").Parse(pageHead + `
<h2>Recent jobs</h2>
{{if not .Jobs}}<p>No jobs yet.</p>{{else}}
<table>
<tr><th>When</th><th>Input</th><th>Output</th><th>Keywords</th><th>Columns</th><th>Batches</th><th>Failed</th><th>Duration</th><th>Model</th></tr>
{{range .Jobs}}
<tr>
<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
<td>{{.InputFile}}</td>
<td>{{.OutputFile}}</td>
<td>{{.Keywords}}</td>
<td>{{.Columns}}</td>
<td>{{.Batches}}</td>
<td>{{if .FailedBatches}}<span class="warn">{{.FailedBatches}}</span>{{else}}0{{end}}</td>
<td>{{.DurationMS}} ms</td>
<td>{{.Provider}}{{if .Model}}/{{.Model}}{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
<p><a href="/">Back</a></p>
</body></html>`))
