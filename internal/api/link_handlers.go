package api

import (
	"net/http"
	"time"
)

type createLinkRequest struct {
	TemplateID     string     `json:"template_id" validate:"required"`
	Language       string     `json:"language" validate:"omitempty,oneof=en es EN ES"`
	ExpiresAt      *time.Time `json:"expires_at"`
	MaxSubmissions int        `json:"max_submissions" validate:"gte=0"`
}

// GET|POST /api/links
func (rt *Router) handleLinks(w http.ResponseWriter, r *http.Request) {
	pid, ok := actorID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := rt.links.ListByProvider(pid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"links": list})
	case http.MethodPost:
		var req createLinkRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := rt.validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid link request: " + err.Error()})
			return
		}
		l, err := rt.links.Create(pid, req.TemplateID, req.Language, rt.templates, req.ExpiresAt, req.MaxSubmissions)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	default:
		methodNotAllowed(w)
	}
}

// /api/links/{code}/deactivate | /api/links/{code}/submissions
func (rt *Router) handleLinkScoped(w http.ResponseWriter, r *http.Request) {
	code, action, ok := scopedPath(r.URL.Path, "/api/links/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	pid, ok := actorID(w, r)
	if !ok {
		return
	}
	switch action {
	case "deactivate":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := rt.links.Deactivate(pid, code); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case "submissions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		l, err := rt.store.GetLinkByCode(code)
		if err != nil {
			writeErr(w, err)
			return
		}
		if l == nil {
			http.NotFound(w, r)
			return
		}
		list, err := rt.submissions.ListByLink(pid, l.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"submissions": list})
	default:
		http.NotFound(w, r)
	}
}

// POST /api/submissions/{id}/review
func (rt *Router) handleSubmissionScoped(w http.ResponseWriter, r *http.Request) {
	id, action, ok := scopedPath(r.URL.Path, "/api/submissions/")
	if !ok || action != "review" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	pid, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := rt.submissions.Review(pid, id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
