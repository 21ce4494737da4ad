package services

import (
	"testing"
	"time"

	"github.com/careform/intake/internal/forms"
)

type stubTemplateStore struct {
	templates map[string]*TemplateRecord
	audits    []AuditEntry
}

func newStubTemplateStore() *stubTemplateStore {
	return &stubTemplateStore{templates: map[string]*TemplateRecord{}}
}

func (s *stubTemplateStore) AddTemplate(rec *TemplateRecord) error {
	copy := *rec
	s.templates[rec.ID] = &copy
	return nil
}

func (s *stubTemplateStore) UpdateTemplate(rec *TemplateRecord) error {
	if _, ok := s.templates[rec.ID]; !ok {
		return NewNotFoundError("template not found")
	}
	copy := *rec
	s.templates[rec.ID] = &copy
	return nil
}

func (s *stubTemplateStore) GetTemplate(id string) (*TemplateRecord, error) {
	if rec, ok := s.templates[id]; ok {
		copy := *rec
		return &copy, nil
	}
	return nil, nil
}

func (s *stubTemplateStore) ListTemplatesByProvider(providerID string) ([]*TemplateRecord, error) {
	var out []*TemplateRecord
	for _, rec := range s.templates {
		if rec.ProviderID == providerID {
			copy := *rec
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *stubTemplateStore) DeleteTemplate(id string) (bool, error) {
	if _, ok := s.templates[id]; !ok {
		return false, nil
	}
	delete(s.templates, id)
	return true, nil
}

func (s *stubTemplateStore) AddAudit(entry AuditEntry) {
	s.audits = append(s.audits, entry)
}

func newTemplateServiceForTest(store TemplateStore) *TemplateService {
	svc := NewTemplateService(store)
	svc.now = func() time.Time { return time.Unix(1000, 0).UTC() }
	svc.idGen = func() string { return "tplgen1" }
	return svc
}

func TestTemplateCreateAndGet(t *testing.T) {
	store := newStubTemplateStore()
	svc := newTemplateServiceForTest(store)

	rec, err := svc.Create("prov1", intakeFixture())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if rec.ProviderID != "prov1" {
		t.Fatalf("expected provider ownership, got %q", rec.ProviderID)
	}

	got, err := svc.Get("prov1", rec.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name.Value != "New Patient Intake" {
		t.Fatalf("unexpected name %q", got.Name.Value)
	}

	if _, err := svc.Get("prov2", rec.ID); !HasCode(err, ErrorForbidden) {
		t.Fatalf("expected forbidden for other provider, got %v", err)
	}
	if _, err := svc.Get("prov1", "missing"); !HasCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestTemplateCreateRejectsInvalid(t *testing.T) {
	store := newStubTemplateStore()
	svc := newTemplateServiceForTest(store)

	bad := intakeFixture()
	bad.Sections = nil
	if _, err := svc.Create("prov1", bad); !HasCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for empty sections, got %v", err)
	}

	dup := intakeFixture()
	dup.Sections[1].Questions[0].ID = "smoking"
	if _, err := svc.Create("prov1", dup); !HasCode(err, ErrorInvalid) {
		t.Fatalf("expected invalid for duplicate question id, got %v", err)
	}

	if _, err := svc.Create("", intakeFixture()); !HasCode(err, ErrorForbidden) {
		t.Fatalf("expected forbidden without provider, got %v", err)
	}
}

func TestTemplateUpdateAndDelete(t *testing.T) {
	store := newStubTemplateStore()
	svc := newTemplateServiceForTest(store)

	rec, err := svc.Create("prov1", intakeFixture())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	edited := rec.Template
	edited.Name = forms.NewText("Renamed Intake")
	updated, err := svc.Update("prov1", &edited)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name.Value != "Renamed Intake" {
		t.Fatalf("update did not persist name: %q", updated.Name.Value)
	}

	if _, err := svc.Update("prov2", &edited); !HasCode(err, ErrorForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}

	if err := svc.Delete("prov1", rec.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get("prov1", rec.ID); !HasCode(err, ErrorNotFound) {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
}

func TestTemplateSnapshotIsFrozen(t *testing.T) {
	store := newStubTemplateStore()
	svc := newTemplateServiceForTest(store)

	rec, err := svc.Create("prov1", intakeFixture())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	snap, err := svc.Snapshot("prov1", rec.ID)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	edited := rec.Template
	edited.Name = forms.NewText("Changed After Snapshot")
	if _, err := svc.Update("prov1", &edited); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if snap.Name.Value != "New Patient Intake" {
		t.Fatalf("snapshot must not see later edits, got %q", snap.Name.Value)
	}
}
