package api

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careform/intake/internal/middleware"
	"github.com/careform/intake/internal/services"
)

type Router struct {
	store       Store
	auth        *services.AuthService
	templates   *services.TemplateService
	assignments *services.AssignmentService
	drafts      *services.DraftService
	links       *services.LinkService
	submissions *services.SubmissionService
	validate    *validator.Validate
	log         *zap.Logger
}

func NewRouter(store Store, notifier services.Notifier, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	templates := services.NewTemplateService(store)
	return &Router{
		store:       store,
		auth:        services.NewAuthService(store, middleware.SignToken),
		templates:   templates,
		assignments: services.NewAssignmentService(store, templates, notifier),
		drafts:      services.NewDraftService(store, log),
		links:       services.NewLinkService(store),
		submissions: services.NewSubmissionService(store, notifier, log),
		validate:    validator.New(),
		log:         log,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/login", rt.handleLogin)       // POST

	mux.HandleFunc("/api/templates", rt.handleTemplates)       // GET, POST
	mux.HandleFunc("/api/templates/", rt.handleTemplateScoped) // GET/PUT/DELETE /api/templates/{id}

	mux.HandleFunc("/api/assignments", rt.handleAssignments)          // GET, POST
	mux.HandleFunc("/api/assignments/", rt.handleAssignmentScoped)    // {id}, {id}/start|submit|approve|edit-requests
	mux.HandleFunc("/api/edit-requests/", rt.handleEditRequestScoped) // POST {id}/resolve

	mux.HandleFunc("/api/links", rt.handleLinks)       // GET, POST
	mux.HandleFunc("/api/links/", rt.handleLinkScoped) // {code}/deactivate, {code}/submissions

	mux.HandleFunc("/api/submissions/", rt.handleSubmissionScoped) // POST {id}/review

	mux.HandleFunc("/api/notifications", rt.handleNotifications)       // GET
	mux.HandleFunc("/api/notifications/", rt.handleNotificationScoped) // POST {id}/read

	mux.HandleFunc("/f/", rt.handlePublicScoped) // public link entry points
}

// actorID returns the authenticated account id or writes a 401.
func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.ProviderIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: string(services.ErrorUnauthorized)})
		return "", false
	}
	return id, true
}

// scopedPath splits "/api/things/{id}[/action]" into id and action after the
// given prefix.
func scopedPath(path, prefix string) (id, action string, ok bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
}
