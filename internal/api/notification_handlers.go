package api

import "net/http"

// GET /api/notifications
func (rt *Router) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	pid, ok := actorID(w, r)
	if !ok {
		return
	}
	list, err := rt.store.ListNotificationsByProvider(pid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// POST /api/notifications/{id}/read
func (rt *Router) handleNotificationScoped(w http.ResponseWriter, r *http.Request) {
	id, action, ok := scopedPath(r.URL.Path, "/api/notifications/")
	if !ok || action != "read" {
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
	if err := rt.store.MarkNotificationRead(pid, id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
