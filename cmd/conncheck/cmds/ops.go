package cmds

import (
	"conncheck/internal/api"
	"conncheck/internal/flow"
	"conncheck/internal/types"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// Write saves one message through the handler's backend and prints the stored result.
func Write(ctx context.Context, h *api.Handler, backend string, req types.WriteRequest, out io.Writer) error {
	if backend == types.BackendFirebase {
		if h.Docs == nil {
			return types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", backend)
		}
		store, err := h.Docs.Cache.Get(ctx)
		if err != nil {
			return err
		}
		res, err := flow.SaveDocument(ctx, store, h.Docs.Ref, req.Message)
		if err != nil {
			return err
		}
		h.Notifier.WriteEvent(ctx, types.WriteEvent{Backend: backend, Target: res.Path, Message: res.Message})
		return printJSON(out, flow.Saved, "result", res)
	}

	tbl, ok := h.Tables[backend]
	if !ok {
		return types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", backend)
	}
	store, err := tbl.Cache.Get(ctx)
	if err != nil {
		return err
	}
	rec, err := flow.InsertRecord(ctx, store, tbl.Table, req)
	if err != nil {
		return err
	}
	h.Notifier.WriteEvent(ctx, types.WriteEvent{Backend: backend, Target: tbl.Table, Message: rec.Message, Author: rec.Author})
	return printJSON(out, flow.Saved, "record", rec)
}

// Read prints the document, or the newest records of a table backend.
func Read(ctx context.Context, h *api.Handler, backend string, limit int, out io.Writer) error {
	if backend == types.BackendFirebase {
		if h.Docs == nil {
			return types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", backend)
		}
		store, err := h.Docs.Cache.Get(ctx)
		if err != nil {
			return err
		}
		doc, outcome, err := flow.ReadDocument(ctx, store, h.Docs.Ref)
		if err != nil {
			return err
		}
		return printJSON(out, outcome, "document", doc)
	}

	tbl, ok := h.Tables[backend]
	if !ok {
		return types.Err(types.ErrUnknownBackend, nil, "backend %q is not enabled", backend)
	}
	store, err := tbl.Cache.Get(ctx)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = h.ReadLimit
	}
	recs, outcome, err := flow.ReadLatest(ctx, store, tbl.Table, limit)
	if err != nil {
		return err
	}
	return printJSON(out, outcome, "records", recs)
}

func printJSON(out io.Writer, outcome flow.Outcome, field string, v any) error {
	b, err := json.MarshalIndent(map[string]any{
		"status": flow.StatusTextMap[outcome],
		field:    v,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
