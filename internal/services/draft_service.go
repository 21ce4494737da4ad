package services

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careform/intake/internal/forms"
)

type DraftStore interface {
	UpsertDraft(d *Draft) error
	GetDraft(sessionKey string) (*Draft, error)
	AddAudit(entry AuditEntry)
}

// DraftService checkpoints in-progress responses keyed by session. Saving
// is best-effort: a store failure is logged and swallowed, the in-memory
// state stays authoritative, and the next checkpoint retries.
type DraftService struct {
	store DraftStore
	log   *zap.Logger
	now   func() time.Time
}

func NewDraftService(store DraftStore, log *zap.Logger) *DraftService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Checkpoint upserts the draft and never surfaces an error to the
// respondent; navigation must not block on persistence.
func (s *DraftService) Checkpoint(d *Draft) {
	if err := s.Save(d); err != nil {
		s.log.Warn("draft checkpoint failed, will retry on next save",
			zap.String("session_key", d.SessionKey), zap.Error(err))
	}
}

// Save upserts the draft and reports the outcome. Used directly where the
// caller wants explicit confirmation (tests, final pre-submit save).
func (s *DraftService) Save(d *Draft) error {
	if d == nil || strings.TrimSpace(d.SessionKey) == "" {
		return NewInvalidError("session key required")
	}
	// A finalized draft stays finalized: a stale checkpoint arriving after
	// submit must not flip it back to "draft" and make it resumable again.
	existing, err := s.store.GetDraft(d.SessionKey)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status != DraftStatusDraft {
		return NewConflictError("draft already finalized")
	}
	if d.Responses == nil {
		d.Responses = forms.ResponseMap{}
	}
	if d.Status == "" {
		d.Status = DraftStatusDraft
	}
	d.UpdatedAt = s.now()
	return s.store.UpsertDraft(d)
}

// Load returns the stored draft for the session key, or nil when the
// session has nothing to resume.
func (s *DraftService) Load(sessionKey string) (*Draft, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, NewInvalidError("session key required")
	}
	return s.store.GetDraft(sessionKey)
}

// Resume rehydrates a runtime from the stored draft. Returns the draft for
// submitter identity, or nil when there is nothing to resume or the draft
// was already finalized.
func (s *DraftService) Resume(sessionKey string, rt *forms.Runtime) (*Draft, error) {
	d, err := s.Load(sessionKey)
	if err != nil {
		return nil, err
	}
	if d == nil || d.Status != DraftStatusDraft {
		return nil, nil
	}
	rt.Restore(d.Responses, d.CompletedSections)
	return d, nil
}
