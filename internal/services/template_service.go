package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careform/intake/internal/forms"
)

type TemplateStore interface {
	AddTemplate(rec *TemplateRecord) error
	UpdateTemplate(rec *TemplateRecord) error
	GetTemplate(id string) (*TemplateRecord, error)
	ListTemplatesByProvider(providerID string) ([]*TemplateRecord, error)
	DeleteTemplate(id string) (bool, error)
	AddAudit(entry AuditEntry)
}

// TemplateService owns the authoring model: structural validation, CRUD
// scoped to the creating provider, and snapshot derivation for assignments
// and links.
type TemplateService struct {
	store TemplateStore
	now   func() time.Time
	idGen func() string
}

func NewTemplateService(store TemplateStore) *TemplateService {
	return &TemplateService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(8) },
	}
}

func (s *TemplateService) Create(providerID string, t *forms.Template) (*TemplateRecord, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if t == nil {
		return nil, NewInvalidError("template required")
	}
	if err := forms.ValidateTemplate(t); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	if strings.TrimSpace(t.ID) == "" {
		t.ID = s.idGen()
	}
	now := s.now()
	rec := &TemplateRecord{Template: *t, ProviderID: providerID, CreatedAt: now, UpdatedAt: now}
	if err := s.store.AddTemplate(rec); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: now, Actor: providerID, Action: "create_template", Target: rec.ID})
	return rec, nil
}

func (s *TemplateService) Update(providerID string, t *forms.Template) (*TemplateRecord, error) {
	rec, err := s.owned(providerID, t.ID)
	if err != nil {
		return nil, err
	}
	if err := forms.ValidateTemplate(t); err != nil {
		return nil, NewInvalidError(err.Error())
	}
	rec.Template = *t
	rec.UpdatedAt = s.now()
	if err := s.store.UpdateTemplate(rec); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: rec.UpdatedAt, Actor: providerID, Action: "update_template", Target: rec.ID})
	return rec, nil
}

func (s *TemplateService) Get(providerID, id string) (*TemplateRecord, error) {
	return s.owned(providerID, id)
}

func (s *TemplateService) List(providerID string) ([]*TemplateRecord, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListTemplatesByProvider(providerID)
}

func (s *TemplateService) Delete(providerID, id string) error {
	if _, err := s.owned(providerID, id); err != nil {
		return err
	}
	ok, err := s.store.DeleteTemplate(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("template not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: providerID, Action: "delete_template", Target: id})
	return nil
}

// Snapshot returns a frozen deep copy of the template for embedding into an
// assignment or public link. Later edits to the live template do not reach
// snapshots already taken.
func (s *TemplateService) Snapshot(providerID, id string) (*forms.Template, error) {
	rec, err := s.owned(providerID, id)
	if err != nil {
		return nil, err
	}
	snap := rec.Template.Clone()
	if snap == nil {
		return nil, NewInvalidError("template snapshot failed")
	}
	return snap, nil
}

func (s *TemplateService) owned(providerID, id string) (*TemplateRecord, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidError("template id required")
	}
	rec, err := s.store.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("template not found")
	}
	if rec.ProviderID != providerID {
		return nil, NewForbiddenError("forbidden")
	}
	return rec, nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
