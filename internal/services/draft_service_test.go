package services

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/careform/intake/internal/forms"
)

type stubDraftStore struct {
	drafts  map[string]*Draft
	audits  []AuditEntry
	saveErr error
}

func newStubDraftStore() *stubDraftStore {
	return &stubDraftStore{drafts: map[string]*Draft{}}
}

func (s *stubDraftStore) UpsertDraft(d *Draft) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copy := *d
	s.drafts[d.SessionKey] = &copy
	return nil
}

func (s *stubDraftStore) GetDraft(sessionKey string) (*Draft, error) {
	if d, ok := s.drafts[sessionKey]; ok {
		copy := *d
		return &copy, nil
	}
	return nil, nil
}

func (s *stubDraftStore) AddAudit(entry AuditEntry) {
	s.audits = append(s.audits, entry)
}

func TestDraftSaveAndLoad(t *testing.T) {
	store := newStubDraftStore()
	svc := NewDraftService(store, zap.NewNop())
	svc.now = func() time.Time { return time.Unix(4000, 0).UTC() }

	d := &Draft{
		SessionKey:        "sess1",
		Responses:         forms.ResponseMap{"smoking": true},
		CompletedSections: []int{0},
	}
	if err := svc.Save(d); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if d.Status != DraftStatusDraft {
		t.Fatalf("Save should default status to draft, got %q", d.Status)
	}

	got, err := svc.Load("sess1")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got == nil || got.Responses["smoking"] != true {
		t.Fatalf("unexpected draft %+v", got)
	}
	if !got.UpdatedAt.Equal(time.Unix(4000, 0).UTC()) {
		t.Fatalf("unexpected timestamp %v", got.UpdatedAt)
	}

	if _, err := svc.Load(""); !HasCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for blank session key, got %v", err)
	}
	missing, err := svc.Load("nope")
	if err != nil || missing != nil {
		t.Fatalf("missing draft should be nil, nil; got %v, %v", missing, err)
	}
}

func TestDraftCheckpointSwallowsStoreFailure(t *testing.T) {
	store := newStubDraftStore()
	store.saveErr = errors.New("disk full")
	svc := NewDraftService(store, zap.NewNop())

	// Checkpoint must not panic or surface the failure.
	svc.Checkpoint(&Draft{SessionKey: "sess1", Responses: forms.ResponseMap{"smoking": false}})

	// The explicit Save path does surface it.
	if err := svc.Save(&Draft{SessionKey: "sess1"}); err == nil {
		t.Fatalf("Save should report store failure")
	}

	// A later checkpoint after recovery persists.
	store.saveErr = nil
	svc.Checkpoint(&Draft{SessionKey: "sess1", Responses: forms.ResponseMap{"smoking": false}})
	got, _ := svc.Load("sess1")
	if got == nil {
		t.Fatalf("retry checkpoint should have persisted")
	}
}

func TestDraftCheckpointCannotReopenFinalizedDraft(t *testing.T) {
	store := newStubDraftStore()
	svc := NewDraftService(store, zap.NewNop())

	if err := svc.Save(&Draft{SessionKey: "sess1", Responses: forms.ResponseMap{"smoking": true}}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	store.drafts["sess1"].Status = DraftStatusSubmitted

	// A stale checkpoint after finalization is refused and swallowed.
	svc.Checkpoint(&Draft{SessionKey: "sess1", Responses: forms.ResponseMap{"smoking": false}})
	got, _ := store.GetDraft("sess1")
	if got.Status != DraftStatusSubmitted {
		t.Fatalf("checkpoint resurrected finalized draft: %+v", got)
	}
	if got.Responses["smoking"] != true {
		t.Fatalf("checkpoint overwrote finalized responses: %+v", got)
	}

	// The explicit path reports the conflict.
	if err := svc.Save(&Draft{SessionKey: "sess1"}); !HasCode(err, ErrorConflict) {
		t.Fatalf("expected conflict for finalized draft, got %v", err)
	}
}

func TestDraftResume(t *testing.T) {
	store := newStubDraftStore()
	svc := NewDraftService(store, zap.NewNop())

	if err := svc.Save(&Draft{
		SessionKey:        "sess1",
		Responses:         forms.ResponseMap{"smoking": true, "cigarettes_per_day": float64(10)},
		CompletedSections: []int{0},
		SubmitterName:     "Ana",
	}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	rt, err := forms.NewRuntime("en", intakeFixture())
	if err != nil {
		t.Fatalf("NewRuntime returned error: %v", err)
	}
	d, err := svc.Resume("sess1", rt)
	if err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}
	if d == nil || d.SubmitterName != "Ana" {
		t.Fatalf("unexpected draft %+v", d)
	}
	if _, si := rt.Position(); si != 1 {
		t.Fatalf("resume should land on first incomplete section, got %d", si)
	}
	if rt.Responses()["smoking"] != true {
		t.Fatalf("responses not restored")
	}

	// Nothing saved for this key: no-op resume.
	rt2, _ := forms.NewRuntime("en", intakeFixture())
	d, err = svc.Resume("fresh", rt2)
	if err != nil || d != nil {
		t.Fatalf("expected nil, nil for unknown session; got %v, %v", d, err)
	}

	// Finalized drafts are not resumable.
	if err := svc.Save(&Draft{SessionKey: "done", Status: DraftStatusSubmitted}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	d, err = svc.Resume("done", rt2)
	if err != nil || d != nil {
		t.Fatalf("submitted draft must not resume; got %v, %v", d, err)
	}
}
