package api

import (
	"net/http"
	"strings"

	"github.com/careform/intake/internal/forms"
	"github.com/careform/intake/internal/services"
)

// The /f/{code} surface is unauthenticated: possession of a live code is the
// credential. Language is pinned to the link, never negotiated.

// /f/{code}            GET  form view
// /f/{code}/draft      GET  resume, POST checkpoint
// /f/{code}/submit     POST finalize
func (rt *Router) handlePublicScoped(w http.ResponseWriter, r *http.Request) {
	code, action, ok := scopedPath(r.URL.Path, "/f/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		rt.handlePublicForm(w, r, code)
	case "draft":
		switch r.Method {
		case http.MethodGet:
			rt.handlePublicDraftLoad(w, r, code)
		case http.MethodPost:
			rt.handlePublicDraftSave(w, r, code)
		default:
			methodNotAllowed(w)
		}
	case "submit":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		rt.handlePublicSubmit(w, r, code)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) handlePublicForm(w http.ResponseWriter, r *http.Request, code string) {
	l, err := rt.links.Resolve(code)
	if err != nil {
		writeErr(w, err)
		return
	}
	view := forms.BuildFormView(l.Snapshot, l.Language)
	writeJSON(w, http.StatusOK, map[string]any{
		"code":     l.Code,
		"language": l.Language,
		"form":     view,
	})
}

type publicDraftRequest struct {
	SessionKey        string            `json:"session_key"`
	Responses         forms.ResponseMap `json:"responses"`
	CompletedSections []int             `json:"completed_sections"`
	SubmitterName     string            `json:"submitter_name"`
	SubmitterEmail    string            `json:"submitter_email"`
	SubmitterPhone    string            `json:"submitter_phone"`
}

// Checkpoints never fail the respondent: the link gates are checked, the
// payload is validated for shape, and the write itself is best-effort.
func (rt *Router) handlePublicDraftSave(w http.ResponseWriter, r *http.Request, code string) {
	if _, err := rt.links.Resolve(code); err != nil {
		writeErr(w, err)
		return
	}
	var req publicDraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SessionKey) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "session_key required"})
		return
	}
	rt.drafts.Checkpoint(&services.Draft{
		SessionKey:        req.SessionKey,
		Responses:         req.Responses,
		CompletedSections: req.CompletedSections,
		SubmitterName:     req.SubmitterName,
		SubmitterEmail:    req.SubmitterEmail,
		SubmitterPhone:    req.SubmitterPhone,
		Status:            services.DraftStatusDraft,
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (rt *Router) handlePublicDraftLoad(w http.ResponseWriter, r *http.Request, code string) {
	if _, err := rt.links.Resolve(code); err != nil {
		writeErr(w, err)
		return
	}
	d, err := rt.drafts.Load(r.URL.Query().Get("session_key"))
	if err != nil {
		writeErr(w, err)
		return
	}
	if d == nil || d.Status != services.DraftStatusDraft {
		writeJSON(w, http.StatusOK, map[string]any{"draft": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft": d})
}

type publicSubmitRequest struct {
	SessionKey     string            `json:"session_key"`
	SubmitterName  string            `json:"submitter_name" validate:"required,max=300"`
	SubmitterEmail string            `json:"submitter_email" validate:"omitempty,email"`
	SubmitterPhone string            `json:"submitter_phone" validate:"max=50"`
	Responses      forms.ResponseMap `json:"responses"`
	Signature      string            `json:"signature"`
}

func (rt *Router) handlePublicSubmit(w http.ResponseWriter, r *http.Request, code string) {
	var req publicSubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid submission: " + err.Error()})
		return
	}
	sub, err := rt.submissions.SubmitExternal(services.ExternalSubmitRequest{
		Code:           code,
		SessionKey:     req.SessionKey,
		SubmitterName:  req.SubmitterName,
		SubmitterEmail: req.SubmitterEmail,
		SubmitterPhone: req.SubmitterPhone,
		Responses:      req.Responses,
		Signature:      req.Signature,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": sub.ID, "status": sub.Status})
}
