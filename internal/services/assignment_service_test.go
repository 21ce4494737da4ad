package services

import (
	"testing"
	"time"

	"github.com/careform/intake/internal/forms"
)

type stubAssignmentStore struct {
	assignments map[string]*Assignment
	editReqs    map[string]*EditRequest
	audits      []AuditEntry
}

func newStubAssignmentStore() *stubAssignmentStore {
	return &stubAssignmentStore{assignments: map[string]*Assignment{}, editReqs: map[string]*EditRequest{}}
}

func (s *stubAssignmentStore) AddAssignment(a *Assignment) error {
	copy := *a
	s.assignments[a.ID] = &copy
	return nil
}

func (s *stubAssignmentStore) GetAssignment(id string) (*Assignment, error) {
	if a, ok := s.assignments[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, nil
}

func (s *stubAssignmentStore) ListAssignmentsByProvider(providerID string) ([]*Assignment, error) {
	var out []*Assignment
	for _, a := range s.assignments {
		if a.ProviderID == providerID {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubAssignmentStore) ListAssignmentsByRespondent(respondentID string) ([]*Assignment, error) {
	var out []*Assignment
	for _, a := range s.assignments {
		if a.RespondentID == respondentID {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubAssignmentStore) SetAssignmentStatus(id string, from, to AssignmentStatus, at time.Time) (bool, error) {
	a, ok := s.assignments[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	if to == AssignmentApproved {
		a.ApprovedAt = &at
	}
	return true, nil
}

func (s *stubAssignmentStore) SubmitAssignment(id string, responses forms.ResponseMap, at time.Time) (bool, error) {
	a, ok := s.assignments[id]
	if !ok || a.Status != AssignmentInProgress {
		return false, nil
	}
	a.Status = AssignmentSubmitted
	a.Responses = responses
	a.SubmittedAt = &at
	return true, nil
}

func (s *stubAssignmentStore) AddEditRequest(er *EditRequest) error {
	copy := *er
	s.editReqs[er.ID] = &copy
	return nil
}

func (s *stubAssignmentStore) GetEditRequest(id string) (*EditRequest, error) {
	if er, ok := s.editReqs[id]; ok {
		copy := *er
		return &copy, nil
	}
	return nil, nil
}

func (s *stubAssignmentStore) SetEditRequestStatus(id string, from, to EditRequestStatus) (bool, error) {
	er, ok := s.editReqs[id]
	if !ok || er.Status != from {
		return false, nil
	}
	er.Status = to
	return true, nil
}

func (s *stubAssignmentStore) ListEditRequestsByAssignment(assignmentID string) ([]*EditRequest, error) {
	var out []*EditRequest
	for _, er := range s.editReqs {
		if er.AssignmentID == assignmentID {
			copy := *er
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubAssignmentStore) AddAudit(entry AuditEntry) {
	s.audits = append(s.audits, entry)
}

// fixedSnapshotter hands out frozen copies of one template.
type fixedSnapshotter struct {
	tpl *forms.Template
}

func (f fixedSnapshotter) Snapshot(providerID, id string) (*forms.Template, error) {
	if id != f.tpl.ID {
		return nil, NewNotFoundError("template not found")
	}
	return f.tpl.Clone(), nil
}

// chanNotifier records events on a channel so tests can wait for the async
// fan-out.
type chanNotifier struct {
	events chan SubmissionEvent
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{events: make(chan SubmissionEvent, 4)}
}

func (n *chanNotifier) SubmissionReceived(ev SubmissionEvent) {
	n.events <- ev
}

func (n *chanNotifier) wait(t *testing.T) SubmissionEvent {
	t.Helper()
	select {
	case ev := <-n.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for submission event")
		return SubmissionEvent{}
	}
}

func newAssignmentServiceForTest(store AssignmentStore, notifier Notifier) *AssignmentService {
	svc := NewAssignmentService(store, fixedSnapshotter{tpl: intakeFixture()}, notifier)
	svc.now = func() time.Time { return time.Unix(2000, 0).UTC() }
	n := 0
	svc.idGen = func() string { n++; return []string{"as1", "as2", "as3"}[n-1] }
	return svc
}

func TestAssignmentHappyPath(t *testing.T) {
	store := newStubAssignmentStore()
	notifier := newChanNotifier()
	svc := newAssignmentServiceForTest(store, notifier)

	a, err := svc.Create("prov1", "resp1", "tpl1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if a.Status != AssignmentPending {
		t.Fatalf("new assignment should be pending, got %s", a.Status)
	}
	if a.Snapshot == nil || a.Snapshot.Name.Value != "New Patient Intake" {
		t.Fatalf("assignment should carry template snapshot")
	}

	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	// Starting again is a no-op, not an illegal transition.
	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("second Start should be idempotent, got %v", err)
	}

	submitted, err := svc.Submit("resp1", a.ID, completeResponses())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if submitted.Status != AssignmentSubmitted || submitted.SubmittedAt == nil {
		t.Fatalf("expected submitted with timestamp, got %+v", submitted)
	}

	ev := notifier.wait(t)
	if ev.Kind != "assignment" || ev.ProviderID != "prov1" {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := svc.Approve("prov1", a.ID); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	got, _ := store.GetAssignment(a.ID)
	if got.Status != AssignmentApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}
}

func TestSubmitRejectsMissingRequired(t *testing.T) {
	store := newStubAssignmentStore()
	svc := newAssignmentServiceForTest(store, nil)

	a, err := svc.Create("prov1", "resp1", "tpl1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	// smoking=true makes the follow-up visible and required.
	rs := forms.ResponseMap{"smoking": true, "consent_sig": "sig"}
	_, err = svc.Submit("resp1", a.ID, rs)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(se.QuestionIDs) != 1 || se.QuestionIDs[0] != "cigarettes_per_day" {
		t.Fatalf("expected cigarettes_per_day flagged, got %v", se.QuestionIDs)
	}

	got, _ := store.GetAssignment(a.ID)
	if got.Status != AssignmentInProgress || got.SubmittedAt != nil {
		t.Fatalf("failed submit must leave assignment untouched, got %+v", got)
	}
}

func TestSubmitGuards(t *testing.T) {
	store := newStubAssignmentStore()
	svc := newAssignmentServiceForTest(store, nil)

	a, _ := svc.Create("prov1", "resp1", "tpl1", nil)

	// Submitting straight from pending skips in_progress.
	if _, err := svc.Submit("resp1", a.ID, completeResponses()); !HasCode(err, ErrorIllegalTransition) {
		t.Fatalf("expected illegal_transition from pending, got %v", err)
	}
	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.Submit("intruder", a.ID, completeResponses()); !HasCode(err, ErrorForbidden) {
		t.Fatalf("expected forbidden for non-respondent, got %v", err)
	}
	if _, err := svc.Submit("resp1", "missing", completeResponses()); !HasCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestEditRequestFlow(t *testing.T) {
	store := newStubAssignmentStore()
	svc := newAssignmentServiceForTest(store, nil)

	a, _ := svc.Create("prov1", "resp1", "tpl1", nil)
	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.Submit("resp1", a.ID, completeResponses()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	// A reason is mandatory.
	if _, err := svc.RequestEdit("resp1", a.ID, "  "); !HasCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for blank reason, got %v", err)
	}

	er, err := svc.RequestEdit("resp1", a.ID, "entered the wrong weight")
	if err != nil {
		t.Fatalf("RequestEdit returned error: %v", err)
	}
	got, _ := store.GetAssignment(a.ID)
	if got.Status != AssignmentEditRequested {
		t.Fatalf("expected edit_requested, got %s", got.Status)
	}

	// Approval is blocked while the edit request is pending.
	if err := svc.Approve("prov1", a.ID); !HasCode(err, ErrorIllegalTransition) {
		t.Fatalf("expected illegal_transition while edit pending, got %v", err)
	}

	if err := svc.ResolveEdit("prov1", er.ID, true); err != nil {
		t.Fatalf("ResolveEdit returned error: %v", err)
	}
	got, _ = store.GetAssignment(a.ID)
	if got.Status != AssignmentInProgress {
		t.Fatalf("approved edit should reopen, got %s", got.Status)
	}
	storedER, _ := store.GetEditRequest(er.ID)
	if storedER.Status != EditRequestApproved {
		t.Fatalf("expected approved edit request, got %s", storedER.Status)
	}

	// Resolving twice is a conflict.
	if err := svc.ResolveEdit("prov1", er.ID, false); !HasCode(err, ErrorConflict) {
		t.Fatalf("expected conflict on double resolve, got %v", err)
	}
}

// lostCASAssignmentStore makes every assignment-status CAS lose, as if a
// concurrent writer always got there first.
type lostCASAssignmentStore struct {
	*stubAssignmentStore
}

func (s *lostCASAssignmentStore) SetAssignmentStatus(id string, from, to AssignmentStatus, at time.Time) (bool, error) {
	return false, nil
}

func TestResolveEditLeavesRequestPendingOnLostRace(t *testing.T) {
	store := newStubAssignmentStore()
	svc := newAssignmentServiceForTest(store, nil)

	a, _ := svc.Create("prov1", "resp1", "tpl1", nil)
	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.Submit("resp1", a.ID, completeResponses()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	er, err := svc.RequestEdit("resp1", a.ID, "entered the wrong weight")
	if err != nil {
		t.Fatalf("RequestEdit returned error: %v", err)
	}

	racing := newAssignmentServiceForTest(&lostCASAssignmentStore{store}, nil)
	if err := racing.ResolveEdit("prov1", er.ID, true); !HasCode(err, ErrorConflict) {
		t.Fatalf("expected conflict on lost CAS, got %v", err)
	}

	// The edit request must still be pending, resolvable once the race is over.
	storedER, _ := store.GetEditRequest(er.ID)
	if storedER.Status != EditRequestPending {
		t.Fatalf("lost race resolved the edit request: %s", storedER.Status)
	}
	if err := svc.ResolveEdit("prov1", er.ID, true); err != nil {
		t.Fatalf("retry ResolveEdit returned error: %v", err)
	}
}

func TestEditRequestDenialKeepsSubmitted(t *testing.T) {
	store := newStubAssignmentStore()
	svc := newAssignmentServiceForTest(store, nil)

	a, _ := svc.Create("prov1", "resp1", "tpl1", nil)
	if err := svc.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.Submit("resp1", a.ID, completeResponses()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	er, err := svc.RequestEdit("resp1", a.ID, "typo in address")
	if err != nil {
		t.Fatalf("RequestEdit returned error: %v", err)
	}

	if err := svc.ResolveEdit("prov2", er.ID, false); !HasCode(err, ErrorForbidden) {
		t.Fatalf("expected forbidden for other provider, got %v", err)
	}
	if err := svc.ResolveEdit("prov1", er.ID, false); err != nil {
		t.Fatalf("ResolveEdit returned error: %v", err)
	}
	got, _ := store.GetAssignment(a.ID)
	if got.Status != AssignmentSubmitted {
		t.Fatalf("denied edit should return to submitted, got %s", got.Status)
	}

	// Denial does not block eventual approval.
	if err := svc.Approve("prov1", a.ID); err != nil {
		t.Fatalf("Approve after denial returned error: %v", err)
	}
}

func TestAssignmentAccessScoping(t *testing.T) {
	store := newStubAssignmentStore()
	svc := newAssignmentServiceForTest(store, nil)

	a, _ := svc.Create("prov1", "resp1", "tpl1", nil)

	if _, err := svc.Get("prov1", a.ID); err != nil {
		t.Fatalf("provider access returned error: %v", err)
	}
	if _, err := svc.Get("resp1", a.ID); err != nil {
		t.Fatalf("respondent access returned error: %v", err)
	}
	if _, err := svc.Get("stranger", a.ID); !HasCode(err, ErrorForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
}
