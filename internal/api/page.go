package api

import (
	"conncheck/internal/flow"
	"conncheck/internal/types"
	"fmt"
	"html/template"
	"net/http"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// DisplayNames is how each backend is named in the UI.
var DisplayNames = map[string]string{
	types.BackendFirebase: "Firestore",
	types.BackendSupabase: "Supabase",
	types.BackendDDB:      "DynamoDB",
	types.BackendRedis:    "Redis",
}

var defaultMessages = map[string]string{
	types.BackendFirebase: "Hello Firebase!",
	types.BackendSupabase: "Hello Supabase from Streamlit!",
}

const defaultAuthor = "TestUser"

type banner struct {
	Kind string // success, error, info
	Text string
}

type pageData struct {
	Backend   string
	Name      string
	Target    string
	Document  bool
	Message   string
	Author    string
	Banner    *banner
	JSON      string
	Records   []types.Record
	Backends  []string
	NameOf    map[string]string
	ReadLimit int
}

var pages = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Connection Test</title>` + style + `</head>
<body><h1>Connection Test</h1>
<p>Pick a backend to test connectivity.</p>
<ul>{{range .Backends}}<li><a href="/ui/{{.}}">{{index $.NameOf .}}</a></li>{{end}}</ul>
</body></html>`))

var backendPage = template.Must(template.New("backend").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Name}} Test App</title>` + style + `</head>
<body><h1>{{.Name}} Connection Test</h1>
<p>This page tests connectivity to {{.Name}} ({{.Target}}).</p>
{{with .Banner}}<div class="banner {{.Kind}}">{{.Text}}</div>{{end}}
<div class="cols">
<form method="post" action="/ui/{{.Backend}}/write">
<h2>Write Data</h2>
<label>Message <input name="message" value="{{.Message}}"></label>
{{if not .Document}}<label>Author <input name="author" value="{{.Author}}"></label>{{end}}
<button type="submit">Save to {{.Name}}</button>
</form>
<form method="post" action="/ui/{{.Backend}}/read">
<h2>Read Data</h2>
{{if not .Document}}<p>Shows the latest {{.ReadLimit}} records.</p>{{end}}
<input type="hidden" name="message" value="{{.Message}}">
{{if not .Document}}<input type="hidden" name="author" value="{{.Author}}">{{end}}
<button type="submit">Read from {{.Name}}</button>
</form>
</div>
{{if .JSON}}<pre>{{.JSON}}</pre>{{end}}
{{if .Records}}<table><tr><th>created_at</th><th>author</th><th>message_text</th></tr>
{{range .Records}}<tr><td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td><td>{{.Author}}</td><td>{{.Message}}</td></tr>{{end}}
</table>{{end}}
<p><a href="/">All backends</a></p>
</body></html>`))

const style = `<style>
body{font-family:sans-serif;max-width:52rem;margin:2rem auto}
.cols{display:flex;gap:2rem}.cols form{flex:1}
label{display:block;margin:.5rem 0}
.banner{padding:.75rem;border-radius:.25rem;margin:1rem 0}
.success{background:#e6f4ea}.error{background:#fce8e6}.info{background:#e8f0fe}
</style>`

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, pages, pageData{Backends: h.Backends(), NameOf: DisplayNames})
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	data, ok := h.newPage(r.PathValue("backend"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	render(w, backendPage, data)
}

func (h *Handler) handlePageWrite(w http.ResponseWriter, r *http.Request) {
	data, ok := h.newPage(r.PathValue("backend"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	req, err := decodeWriteRequest(w, r)
	if err != nil {
		data.Banner = &banner{Kind: "error", Text: err.Error()}
		render(w, backendPage, data)
		return
	}
	data.Message, data.Author = req.Message, req.Author

	ctx := r.Context()
	if data.Document {
		store, err := h.Docs.Cache.Get(ctx)
		if err != nil {
			data.Banner = unavailable(data.Name, err)
			render(w, backendPage, data)
			return
		}
		res, err := flow.SaveDocument(ctx, store, h.Docs.Ref, req.Message)
		if err != nil {
			data.Banner = &banner{Kind: "error", Text: fmt.Sprintf("Error writing to %s: %v", data.Name, err)}
			render(w, backendPage, data)
			return
		}
		h.Notifier.WriteEvent(ctx, types.WriteEvent{Backend: data.Backend, Target: res.Path, Message: res.Message})
		data.Banner = &banner{Kind: "success", Text: fmt.Sprintf("Message saved: '%s' to '%s'", res.Message, res.Path)}
		render(w, backendPage, data)
		return
	}

	tbl := h.Tables[data.Backend]
	store, err := tbl.Cache.Get(ctx)
	if err != nil {
		data.Banner = unavailable(data.Name, err)
		render(w, backendPage, data)
		return
	}
	rec, err := flow.InsertRecord(ctx, store, tbl.Table, req)
	if err != nil {
		data.Banner = &banner{Kind: "error", Text: fmt.Sprintf("Error writing to %s: %v", data.Name, err)}
		render(w, backendPage, data)
		return
	}
	h.Notifier.WriteEvent(ctx, types.WriteEvent{Backend: data.Backend, Target: tbl.Table, Message: rec.Message, Author: rec.Author})
	data.Banner = &banner{Kind: "success", Text: fmt.Sprintf("Row inserted into '%s': '%s' by %s", tbl.Table, rec.Message, authorOrAnonymous(rec.Author))}
	render(w, backendPage, data)
}

func (h *Handler) handlePageRead(w http.ResponseWriter, r *http.Request) {
	data, ok := h.newPage(r.PathValue("backend"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err == nil {
		if m := r.PostFormValue("message"); m != "" {
			data.Message = m
		}
		data.Author = r.PostFormValue("author")
	}

	ctx := r.Context()
	if data.Document {
		store, err := h.Docs.Cache.Get(ctx)
		if err != nil {
			data.Banner = unavailable(data.Name, err)
			render(w, backendPage, data)
			return
		}
		doc, outcome, err := flow.ReadDocument(ctx, store, h.Docs.Ref)
		if err != nil {
			data.Banner = &banner{Kind: "error", Text: fmt.Sprintf("Error reading from %s: %v", data.Name, err)}
			render(w, backendPage, data)
			return
		}
		if outcome == flow.Empty {
			data.Banner = &banner{Kind: flow.BannerKind[outcome], Text: "No data found at specified path. Try saving first!"}
		} else if b, err := json.MarshalIndent(doc.Data, "", "  "); err != nil {
			data.Banner = &banner{Kind: "error", Text: fmt.Sprintf("Error reading from %s: %v", data.Name, err)}
		} else {
			data.Banner = &banner{Kind: flow.BannerKind[outcome], Text: fmt.Sprintf("Latest data from %s:", data.Name)}
			data.JSON = string(b)
		}
		render(w, backendPage, data)
		return
	}

	tbl := h.Tables[data.Backend]
	store, err := tbl.Cache.Get(ctx)
	if err != nil {
		data.Banner = unavailable(data.Name, err)
		render(w, backendPage, data)
		return
	}
	recs, outcome, err := flow.ReadLatest(ctx, store, tbl.Table, h.ReadLimit)
	if err != nil {
		data.Banner = &banner{Kind: "error", Text: fmt.Sprintf("Error reading from %s: %v", data.Name, err)}
		render(w, backendPage, data)
		return
	}
	if outcome == flow.Empty {
		data.Banner = &banner{Kind: flow.BannerKind[outcome], Text: fmt.Sprintf("No records found in '%s'. Try inserting first!", tbl.Table)}
	} else {
		data.Banner = &banner{Kind: flow.BannerKind[outcome], Text: fmt.Sprintf("Latest %d records from '%s':", len(recs), tbl.Table)}
		data.Records = recs
	}
	render(w, backendPage, data)
}

func (h *Handler) newPage(backend string) (pageData, bool) {
	data := pageData{
		Backend:   backend,
		Name:      DisplayNames[backend],
		Message:   defaultMessages[backend],
		Author:    defaultAuthor,
		ReadLimit: h.ReadLimit,
	}
	if data.Message == "" {
		data.Message = fmt.Sprintf("Hello %s!", data.Name)
	}
	if backend == types.BackendFirebase {
		if h.Docs == nil {
			return data, false
		}
		data.Document = true
		data.Target = h.Docs.Ref.Path()
		return data, true
	}
	tbl, ok := h.Tables[backend]
	if !ok {
		return data, false
	}
	data.Target = tbl.Table
	return data, true
}

func unavailable(name string, err error) *banner {
	return &banner{Kind: "error", Text: fmt.Sprintf("%s client not available: %v", name, err)}
}

func authorOrAnonymous(a string) string {
	if a == "" {
		return "anonymous"
	}
	return a
}

func render(w http.ResponseWriter, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		log.WithError(err).Error("Failed to render page")
	}
}
