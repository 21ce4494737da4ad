package api

import (
	"net/http"

	"github.com/careform/intake/internal/forms"
)

// GET|POST /api/templates
func (rt *Router) handleTemplates(w http.ResponseWriter, r *http.Request) {
	pid, ok := actorID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		recs, err := rt.templates.List(pid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": recs})
	case http.MethodPost:
		var t forms.Template
		if !decodeBody(w, r, &t) {
			return
		}
		rec, err := rt.templates.Create(pid, &t)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	default:
		methodNotAllowed(w)
	}
}

// GET|PUT|DELETE /api/templates/{id}
func (rt *Router) handleTemplateScoped(w http.ResponseWriter, r *http.Request) {
	id, action, ok := scopedPath(r.URL.Path, "/api/templates/")
	if !ok || action != "" {
		http.NotFound(w, r)
		return
	}
	pid, ok := actorID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		rec, err := rt.templates.Get(pid, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPut:
		var t forms.Template
		if !decodeBody(w, r, &t) {
			return
		}
		t.ID = id
		rec, err := rt.templates.Update(pid, &t)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := rt.templates.Delete(pid, id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		methodNotAllowed(w)
	}
}
