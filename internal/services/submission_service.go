package services

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careform/intake/internal/forms"
)

type SubmissionStore interface {
	GetLinkByCode(code string) (*PublicLink, error)
	GetLink(id string) (*PublicLink, error)
	// CreateExternalSubmission inserts the submission and increments the
	// link's counter in one transaction. The increment is a conditional
	// update with the quota as ceiling; false means the quota was exhausted
	// at acceptance time and nothing was written.
	CreateExternalSubmission(sub *ExternalSubmission) (bool, error)
	GetExternalSubmission(id string) (*ExternalSubmission, error)
	ListExternalSubmissionsByLink(linkID string) ([]*ExternalSubmission, error)
	// SetExternalSubmissionStatus flips the status only when the stored
	// value still equals from.
	SetExternalSubmissionStatus(id string, from, to SubmissionStatus) (bool, error)
	MarkDraftSubmitted(sessionKey string) error
	AddAudit(entry AuditEntry)
}

// ExternalSubmitRequest is the sanitized input for finalizing a
// public-link submission.
type ExternalSubmitRequest struct {
	Code           string
	SessionKey     string
	SubmitterName  string
	SubmitterEmail string
	SubmitterPhone string
	Responses      forms.ResponseMap
	Signature      string
}

// SubmissionService finalizes public-link submissions and handles the
// provider-side review acknowledgment.
type SubmissionService struct {
	store    SubmissionStore
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
}

func NewSubmissionService(store SubmissionStore, notifier Notifier, log *zap.Logger) *SubmissionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		store:    store,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    func() string { return shortID(12) },
	}
}

// SubmitExternal commits a public submission all-or-nothing: the submission
// row and the quota increment land together or the respondent stays on the
// last section with nothing persisted as submitted.
func (s *SubmissionService) SubmitExternal(req ExternalSubmitRequest) (*ExternalSubmission, error) {
	if strings.TrimSpace(req.SubmitterName) == "" {
		return nil, NewInvalidError("submitter name required")
	}
	l, err := s.store.GetLinkByCode(req.Code)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, NewNotFoundError("link not found")
	}
	at := s.now()
	if err := CheckLink(l, at); err != nil {
		return nil, err
	}
	if missing := missingAnswers(l.Snapshot, req.Responses); len(missing) > 0 {
		return nil, NewValidationError("required answers missing", missing)
	}

	sub := &ExternalSubmission{
		ID:             s.idGen(),
		LinkID:         l.ID,
		SubmitterName:  req.SubmitterName,
		SubmitterEmail: req.SubmitterEmail,
		SubmitterPhone: req.SubmitterPhone,
		Responses:      req.Responses,
		Signature:      req.Signature,
		Status:         SubmissionSubmitted,
		CreatedAt:      at,
	}
	ok, err := s.store.CreateExternalSubmission(sub)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewQuotaExceededError("link submission quota exhausted")
	}

	// The draft is superseded, not deleted; the janitor purges it later.
	if req.SessionKey != "" {
		if err := s.store.MarkDraftSubmitted(req.SessionKey); err != nil {
			s.log.Warn("mark draft submitted failed",
				zap.String("session_key", req.SessionKey), zap.Error(err))
		}
	}

	s.store.AddAudit(AuditEntry{Time: at, Actor: "respondent", Action: "submit_external", Target: sub.ID, Note: l.Code})
	s.emit(SubmissionEvent{
		Kind:           "external",
		ID:             sub.ID,
		ProviderID:     l.ProviderID,
		TemplateName:   l.Snapshot.Name.Value,
		SubmitterName:  sub.SubmitterName,
		SubmitterEmail: sub.SubmitterEmail,
		At:             at,
	})
	return sub, nil
}

// Review is the provider's one-way acknowledgment; it does not reopen the
// submission for editing.
func (s *SubmissionService) Review(providerID, id string) error {
	sub, err := s.store.GetExternalSubmission(id)
	if err != nil {
		return err
	}
	if sub == nil {
		return NewNotFoundError("submission not found")
	}
	l, err := s.ownerLink(sub.LinkID, providerID)
	if err != nil {
		return err
	}
	if err := TransitionSubmission(sub.Status, SubmissionReviewed); err != nil {
		return err
	}
	ok, err := s.store.SetExternalSubmissionStatus(id, sub.Status, SubmissionReviewed)
	if err != nil {
		return err
	}
	if !ok {
		return NewConflictError("submission status changed concurrently")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: providerID, Action: "review_submission", Target: id, Note: l.Code})
	return nil
}

func (s *SubmissionService) ListByLink(providerID, linkID string) ([]*ExternalSubmission, error) {
	if _, err := s.ownerLink(linkID, providerID); err != nil {
		return nil, err
	}
	return s.store.ListExternalSubmissionsByLink(linkID)
}

func (s *SubmissionService) ownerLink(linkID, providerID string) (*PublicLink, error) {
	l, err := s.store.GetLink(linkID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, NewNotFoundError("link not found")
	}
	if l.ProviderID != providerID {
		return nil, NewForbiddenError("forbidden")
	}
	return l, nil
}

func (s *SubmissionService) emit(ev SubmissionEvent) {
	if s.notifier == nil {
		return
	}
	go s.notifier.SubmissionReceived(ev)
}
