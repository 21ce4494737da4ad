package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

type LinkStore interface {
	AddLink(l *PublicLink) error
	GetLinkByCode(code string) (*PublicLink, error)
	ListLinksByProvider(providerID string) ([]*PublicLink, error)
	SetLinkActive(id string, active bool) error
	AddAudit(entry AuditEntry)
}

// LinkService issues shareable public entry points and gates them on
// expiry, quota and the active flag. Codes come from crypto/rand only, so
// future codes are unreadable from past ones.
type LinkService struct {
	store   LinkStore
	now     func() time.Time
	codeGen func() string
	idGen   func() string
}

func NewLinkService(store LinkStore) *LinkService {
	return &LinkService{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		codeGen: func() string { return randomCode(9) },
		idGen:   func() string { return shortID(10) },
	}
}

func (s *LinkService) Create(providerID, templateID, language string, templates TemplateSnapshotter, expiresAt *time.Time, maxSubmissions int) (*PublicLink, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	if maxSubmissions < 0 {
		return nil, NewInvalidError("max submissions must not be negative")
	}
	snap, err := templates.Snapshot(providerID, templateID)
	if err != nil {
		return nil, err
	}
	code := s.codeGen()
	if code == "" {
		return nil, errors.New("link code generation failed")
	}
	l := &PublicLink{
		ID:             s.idGen(),
		Code:           code,
		ProviderID:     providerID,
		TemplateID:     templateID,
		Snapshot:       snap,
		Language:       strings.ToLower(language),
		ExpiresAt:      expiresAt,
		MaxSubmissions: maxSubmissions,
		Active:         true,
		CreatedAt:      s.now(),
	}
	if err := s.store.AddLink(l); err != nil {
		return nil, err
	}
	s.store.AddAudit(AuditEntry{Time: l.CreatedAt, Actor: providerID, Action: "create_link", Target: l.Code, Note: templateID})
	return l, nil
}

// Resolve looks up a link by code and applies the acceptance gates. Errors
// here are terminal for the respondent session; there is no retry path
// other than a fresh link.
func (s *LinkService) Resolve(code string) (*PublicLink, error) {
	if strings.TrimSpace(code) == "" {
		return nil, NewNotFoundError("link not found")
	}
	l, err := s.store.GetLinkByCode(code)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, NewNotFoundError("link not found")
	}
	if err := CheckLink(l, s.now()); err != nil {
		return nil, err
	}
	return l, nil
}

// CheckLink validates a loaded link against the acceptance gates at the
// given instant.
func CheckLink(l *PublicLink, now time.Time) error {
	if !l.Active {
		return NewInactiveError("link is no longer active")
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return NewExpiredError("link has expired")
	}
	if l.MaxSubmissions > 0 && l.CurrentSubmissions >= l.MaxSubmissions {
		return NewQuotaExceededError("link submission quota exhausted")
	}
	return nil
}

func (s *LinkService) ListByProvider(providerID string) ([]*PublicLink, error) {
	if providerID == "" {
		return nil, NewForbiddenError("unauthorized")
	}
	return s.store.ListLinksByProvider(providerID)
}

func (s *LinkService) Deactivate(providerID, code string) error {
	l, err := s.store.GetLinkByCode(code)
	if err != nil {
		return err
	}
	if l == nil {
		return NewNotFoundError("link not found")
	}
	if l.ProviderID != providerID {
		return NewForbiddenError("forbidden")
	}
	if err := s.store.SetLinkActive(l.ID, false); err != nil {
		return err
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: providerID, Action: "deactivate_link", Target: code})
	return nil
}

// randomCode returns a URL-safe share code with no sequential component.
func randomCode(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in a bad state; Create
		// rejects the empty code rather than handing out a guessable one.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
