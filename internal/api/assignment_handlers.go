package api

import (
	"net/http"
	"time"

	"github.com/careform/intake/internal/forms"
)

type createAssignmentRequest struct {
	TemplateID   string     `json:"template_id" validate:"required"`
	RespondentID string     `json:"respondent_id" validate:"required"`
	DueDate      *time.Time `json:"due_date"`
}

// GET|POST /api/assignments
// GET lists the caller's assignments as provider; ?as=respondent flips to
// the assignments directed at them.
func (rt *Router) handleAssignments(w http.ResponseWriter, r *http.Request) {
	uid, ok := actorID(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		var err error
		var list any
		if r.URL.Query().Get("as") == "respondent" {
			list, err = rt.assignments.ListByRespondent(uid)
		} else {
			list, err = rt.assignments.ListByProvider(uid)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assignments": list})
	case http.MethodPost:
		var req createAssignmentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := rt.validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "template_id and respondent_id required"})
			return
		}
		a, err := rt.assignments.Create(uid, req.RespondentID, req.TemplateID, req.DueDate)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	default:
		methodNotAllowed(w)
	}
}

// /api/assignments/{id}[/start|submit|approve|edit-requests]
func (rt *Router) handleAssignmentScoped(w http.ResponseWriter, r *http.Request) {
	id, action, ok := scopedPath(r.URL.Path, "/api/assignments/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	uid, ok := actorID(w, r)
	if !ok {
		return
	}
	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		a, err := rt.assignments.Get(uid, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "start":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if _, err := rt.assignments.Get(uid, id); err != nil {
			writeErr(w, err)
			return
		}
		if err := rt.assignments.Start(id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case "submit":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Responses forms.ResponseMap `json:"responses"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		a, err := rt.assignments.Submit(uid, id, req.Responses)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "approve":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := rt.assignments.Approve(uid, id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case "edit-requests":
		switch r.Method {
		case http.MethodGet:
			list, err := rt.assignments.ListEditRequests(uid, id)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"edit_requests": list})
		case http.MethodPost:
			var req struct {
				Reason string `json:"reason"`
			}
			if !decodeBody(w, r, &req) {
				return
			}
			er, err := rt.assignments.RequestEdit(uid, id, req.Reason)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, er)
		default:
			methodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}

// POST /api/edit-requests/{id}/resolve
func (rt *Router) handleEditRequestScoped(w http.ResponseWriter, r *http.Request) {
	id, action, ok := scopedPath(r.URL.Path, "/api/edit-requests/")
	if !ok || action != "resolve" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	uid, ok := actorID(w, r)
	if !ok {
		return
	}
	var req struct {
		Approve bool `json:"approve"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rt.assignments.ResolveEdit(uid, id, req.Approve); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
