package api

import (
	"conncheck/internal/flow"
	"conncheck/internal/ports"
	"conncheck/internal/types"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// DocumentBackend is the document backend: a lazily built store and the one document it checks.
type DocumentBackend struct {
	Cache *flow.ClientCache[ports.DocumentStore]
	Ref   types.DocRef
}

// TableBackend is a table backend: a lazily built store and the table it checks.
type TableBackend struct {
	Cache *flow.ClientCache[ports.RecordStore]
	Table string
}

type Handler struct {
	Docs      *DocumentBackend
	Tables    map[string]*TableBackend
	Notifier  *flow.Notifier
	ReadLimit int
}

func NewHandler(docs *DocumentBackend, tables map[string]*TableBackend, notifier *flow.Notifier, readLimit int) *Handler {
	if tables == nil {
		tables = map[string]*TableBackend{}
	}
	return &Handler{
		Docs:      docs,
		Tables:    tables,
		Notifier:  notifier,
		ReadLimit: flow.ClampLimit(readLimit),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/firebase/document", h.handleDocumentWrite)
	mux.HandleFunc("GET /api/firebase/document", h.handleDocumentRead)
	mux.HandleFunc("POST /api/{backend}/records", h.handleRecordsWrite)
	mux.HandleFunc("GET /api/{backend}/records", h.handleRecordsRead)

	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /ui/{backend}", h.handlePage)
	mux.HandleFunc("POST /ui/{backend}/write", h.handlePageWrite)
	mux.HandleFunc("POST /ui/{backend}/read", h.handlePageRead)
	return mux
}

// Backends lists the enabled backend names in display order.
func (h *Handler) Backends() []string {
	var out []string
	for _, b := range types.KnownBackends {
		if b == types.BackendFirebase && h.Docs != nil {
			out = append(out, b)
			continue
		}
		if _, ok := h.Tables[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Close releases every client built so far. Unbuilt backends are skipped.
func (h *Handler) Close() error {
	var errs []error
	if h.Docs != nil {
		errs = append(errs, h.Docs.Cache.Close())
	}
	for _, b := range types.KnownBackends {
		if tbl, ok := h.Tables[b]; ok {
			errs = append(errs, tbl.Cache.Close())
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) handleDocumentWrite(w http.ResponseWriter, r *http.Request) {
	if h.Docs == nil {
		writeError(w, types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", types.BackendFirebase))
		return
	}
	req, err := decodeWriteRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	store, err := h.Docs.Cache.Get(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := flow.SaveDocument(ctx, store, h.Docs.Ref, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Notifier.WriteEvent(ctx, types.WriteEvent{
		Backend: types.BackendFirebase,
		Target:  res.Path,
		Message: res.Message,
	})
	if err := writeJSON(w, http.StatusOK, map[string]any{
		"status": flow.StatusTextMap[flow.Saved],
		"result": res,
	}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleDocumentRead(w http.ResponseWriter, r *http.Request) {
	if h.Docs == nil {
		writeError(w, types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", types.BackendFirebase))
		return
	}
	ctx := r.Context()
	store, err := h.Docs.Cache.Get(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, outcome, err := flow.ReadDocument(ctx, store, h.Docs.Ref)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeReadResult(w, r, outcome, "document", doc)
}

func (h *Handler) handleRecordsWrite(w http.ResponseWriter, r *http.Request) {
	backend := r.PathValue("backend")
	tbl, err := h.tableBackend(backend)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := decodeWriteRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	store, err := tbl.Cache.Get(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := flow.InsertRecord(ctx, store, tbl.Table, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Notifier.WriteEvent(ctx, types.WriteEvent{
		Backend: backend,
		Target:  tbl.Table,
		Message: rec.Message,
		Author:  rec.Author,
	})
	if err := writeJSON(w, http.StatusOK, map[string]any{
		"status": flow.StatusTextMap[flow.Saved],
		"record": rec,
	}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleRecordsRead(w http.ResponseWriter, r *http.Request) {
	tbl, err := h.tableBackend(r.PathValue("backend"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit := h.ReadLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	ctx := r.Context()
	store, err := tbl.Cache.Get(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	recs, outcome, err := flow.ReadLatest(ctx, store, tbl.Table, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeReadResult(w, r, outcome, "records", recs)
}

// writeReadResult writes {status, <field>: v}, or {status, result} when a JMESPath
// projection is requested with ?q=.
func (h *Handler) writeReadResult(w http.ResponseWriter, r *http.Request, outcome flow.Outcome, field string, v any) {
	body := map[string]any{"status": flow.StatusTextMap[outcome]}
	if q := r.URL.Query().Get("q"); q != "" {
		projected, err := flow.Project(q, v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body["result"] = projected
	} else {
		body[field] = v
	}
	if err := writeJSON(w, http.StatusOK, body); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) tableBackend(backend string) (*TableBackend, error) {
	tbl, ok := h.Tables[backend]
	if !ok {
		return nil, types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", backend)
	}
	return tbl, nil
}

// decodeWriteRequest accepts a JSON body or form values.
func decodeWriteRequest(w http.ResponseWriter, r *http.Request) (types.WriteRequest, error) {
	var req types.WriteRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return req, types.Err(types.ErrInvalidRecord, err, "read error")
		}
		defer func() {
			_ = r.Body.Close()
		}()
		if err := json.Unmarshal(body, &req); err != nil {
			return req, types.Err(types.ErrInvalidRecord, err, "invalid json")
		}
		return req, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, types.Err(types.ErrInvalidRecord, err, "invalid form")
	}
	req.Message = r.PostFormValue("message")
	req.Author = r.PostFormValue("author")
	return req, nil
}

// statusCode maps the error taxonomy to HTTP.
func statusCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnknownBackend):
		return http.StatusNotFound
	case errors.Is(err, types.ErrClientInit):
		return http.StatusServiceUnavailable
	case errors.Is(err, types.ErrOperation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("Unexpected error")
	}
	if werr := writeJSON(w, code, map[string]any{
		"status": flow.StatusTextMap[flow.Failed],
		"error":  err.Error(),
	}); werr != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
