package services

import (
	"strings"
	"time"

	"github.com/careform/intake/internal/forms"
)

type AssignmentStore interface {
	AddAssignment(a *Assignment) error
	GetAssignment(id string) (*Assignment, error)
	ListAssignmentsByProvider(providerID string) ([]*Assignment, error)
	ListAssignmentsByRespondent(respondentID string) ([]*Assignment, error)
	// SetAssignmentStatus flips the status only when the stored value still
	// equals from; returns false when it did not match.
	SetAssignmentStatus(id string, from, to AssignmentStatus, at time.Time) (bool, error)
	// SubmitAssignment writes responses, submitted_at and the submitted
	// status in one transaction, gated on the stored status being
	// in_progress.
	SubmitAssignment(id string, responses forms.ResponseMap, at time.Time) (bool, error)
	AddEditRequest(er *EditRequest) error
	GetEditRequest(id string) (*EditRequest, error)
	SetEditRequestStatus(id string, from, to EditRequestStatus) (bool, error)
	ListEditRequestsByAssignment(assignmentID string) ([]*EditRequest, error)
	AddAudit(entry AuditEntry)
}

// TemplateSnapshotter freezes a template for embedding at creation time.
type TemplateSnapshotter interface {
	Snapshot(providerID, id string) (*forms.Template, error)
}

// AssignmentService drives the internal-assignment lifecycle:
// pending -> in_progress -> submitted -> {approved | edit_requested}.
type AssignmentService struct {
	store     AssignmentStore
	templates TemplateSnapshotter
	notifier  Notifier
	now       func() time.Time
	idGen     func() string
}

func NewAssignmentService(store AssignmentStore, templates TemplateSnapshotter, notifier Notifier) *AssignmentService {
	return &AssignmentService{
		store:     store,
		templates: templates,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return shortID(10) },
	}
}

func (s *AssignmentService) Create(providerID, respondentID, templateID string, due *time.Time) (*Assignment, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if strings.TrimSpace(respondentID) == "" {
		return nil, NewInvalidError("respondent required")
	}
	snap, err := s.templates.Snapshot(providerID, templateID)
	if err != nil {
		return nil, err
	}
	a := &Assignment{
		ID:           s.idGen(),
		TemplateID:   templateID,
		Snapshot:     snap,
		RespondentID: respondentID,
		ProviderID:   providerID,
		Status:       AssignmentPending,
		DueDate:      due,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddAssignment(a); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: a.CreatedAt, Actor: providerID, Action: "create_assignment", Target: a.ID})
	return a, nil
}

func (s *AssignmentService) Get(actorID, id string) (*Assignment, error) {
	a, err := s.store.GetAssignment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assignment not found")
	}
	if actorID != a.ProviderID && actorID != a.RespondentID {
		return nil, NewForbiddenError("forbidden")
	}
	return a, nil
}

func (s *AssignmentService) ListByProvider(providerID string) ([]*Assignment, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListAssignmentsByProvider(providerID)
}

func (s *AssignmentService) ListByRespondent(respondentID string) ([]*Assignment, error) {
	if respondentID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListAssignmentsByRespondent(respondentID)
}

// Start moves pending -> in_progress on the first successful draft save.
// Calling it again while already in progress is a no-op.
func (s *AssignmentService) Start(id string) error {
	a, err := s.store.GetAssignment(id)
	if err != nil {
		return err
	}
	if a == nil {
		return NewNotFoundError("assignment not found")
	}
	if a.Status == AssignmentInProgress {
		return nil
	}
	if err := Transition(a.Status, AssignmentInProgress); err != nil {
		return err
	}
	ok, err := s.store.SetAssignmentStatus(id, a.Status, AssignmentInProgress, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return NewConflictError("assignment status changed concurrently")
	}
	return nil
}

// Submit commits the final responses. All-or-nothing: the responses,
// submitted_at and status land in one store transaction or not at all, and
// the respondent stays on the last section on failure.
func (s *AssignmentService) Submit(respondentID, id string, responses forms.ResponseMap) (*Assignment, error) {
	a, err := s.store.GetAssignment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assignment not found")
	}
	if respondentID != a.RespondentID {
		return nil, NewForbiddenError("forbidden")
	}
	if err := Transition(a.Status, AssignmentSubmitted); err != nil {
		return nil, err
	}
	if missing := missingAnswers(a.Snapshot, responses); len(missing) > 0 {
		return nil, NewValidationError("required answers missing", missing)
	}
	at := s.now()
	ok, err := s.store.SubmitAssignment(id, responses, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewConflictError("assignment status changed concurrently")
	}
	a.Status = AssignmentSubmitted
	a.SubmittedAt = &at
	a.Responses = responses
	s.store.AddAudit(AuditEntry{Time: at, Actor: respondentID, Action: "submit_assignment", Target: id})
	s.emit(SubmissionEvent{
		Kind:         "assignment",
		ID:           a.ID,
		ProviderID:   a.ProviderID,
		TemplateName: a.Snapshot.Name.Value,
		At:           at,
	})
	return a, nil
}

// Approve is the provider's terminal acceptance of a submitted assignment.
func (s *AssignmentService) Approve(providerID, id string) error {
	a, err := s.store.GetAssignment(id)
	if err != nil {
		return err
	}
	if a == nil {
		return NewNotFoundError("assignment not found")
	}
	if providerID != a.ProviderID {
		return NewForbiddenError("forbidden")
	}
	if err := Transition(a.Status, AssignmentApproved); err != nil {
		return err
	}
	ok, err := s.store.SetAssignmentStatus(id, a.Status, AssignmentApproved, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return NewConflictError("assignment status changed concurrently")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: providerID, Action: "approve_assignment", Target: id})
	return nil
}

// RequestEdit files the respondent's petition to reopen a submitted
// assignment and parks it in edit_requested until the provider resolves it.
func (s *AssignmentService) RequestEdit(respondentID, assignmentID, reason string) (*EditRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewInvalidError("reason required")
	}
	a, err := s.store.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, NewNotFoundError("assignment not found")
	}
	if respondentID != a.RespondentID {
		return nil, NewForbiddenError("forbidden")
	}
	if err := Transition(a.Status, AssignmentEditRequested); err != nil {
		return nil, err
	}
	er := &EditRequest{
		ID:           s.idGen(),
		AssignmentID: assignmentID,
		Reason:       reason,
		Status:       EditRequestPending,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddEditRequest(er); err != nil {
		return nil, err
	}
	ok, err := s.store.SetAssignmentStatus(assignmentID, a.Status, AssignmentEditRequested, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewConflictError("assignment status changed concurrently")
	}
	s.store.AddAudit(AuditEntry{Time: er.CreatedAt, Actor: respondentID, Action: "request_edit", Target: assignmentID, Note: er.ID})
	return er, nil
}

// ResolveEdit settles a pending edit request: approval reopens the
// assignment for editing, denial returns it to submitted unchanged.
func (s *AssignmentService) ResolveEdit(providerID, requestID string, approve bool) error {
	er, err := s.store.GetEditRequest(requestID)
	if err != nil {
		return err
	}
	if er == nil {
		return NewNotFoundError("edit request not found")
	}
	if er.Status != EditRequestPending {
		return NewConflictError("edit request already resolved")
	}
	a, err := s.store.GetAssignment(er.AssignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return NewNotFoundError("assignment not found")
	}
	if providerID != a.ProviderID {
		return NewForbiddenError("forbidden")
	}

	target := AssignmentSubmitted
	erStatus := EditRequestDenied
	if approve {
		target = AssignmentInProgress
		erStatus = EditRequestApproved
	}
	if err := Transition(a.Status, target); err != nil {
		return err
	}
	// Move the assignment first: if the CAS loses a race the edit request
	// stays pending instead of being marked resolved with no effect.
	ok, err := s.store.SetAssignmentStatus(a.ID, a.Status, target, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return NewConflictError("assignment status changed concurrently")
	}
	if ok, err := s.store.SetEditRequestStatus(requestID, EditRequestPending, erStatus); err != nil {
		return err
	} else if !ok {
		return NewConflictError("edit request already resolved")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: providerID, Action: "resolve_edit", Target: er.AssignmentID, Note: string(erStatus)})
	return nil
}

func (s *AssignmentService) ListEditRequests(actorID, assignmentID string) ([]*EditRequest, error) {
	if _, err := s.Get(actorID, assignmentID); err != nil {
		return nil, err
	}
	return s.store.ListEditRequestsByAssignment(assignmentID)
}

func (s *AssignmentService) emit(ev SubmissionEvent) {
	if s.notifier == nil {
		return
	}
	go s.notifier.SubmissionReceived(ev)
}

// missingAnswers runs the runtime's full validation over a snapshot.
func missingAnswers(snap *forms.Template, responses forms.ResponseMap) []string {
	var missing []string
	for _, sec := range snap.Sections {
		for _, q := range sec.Questions {
			if !q.Required || !forms.Visible(q, responses) {
				continue
			}
			if !forms.Answered(responses[q.ID]) {
				missing = append(missing, q.ID)
			}
		}
	}
	return missing
}
