package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careform/intake/internal/services"
)

type Store interface {
	AddNotification(n *services.Notification) error
	GetProvider(id string) (*services.Provider, error)
}

// Mailer sends a single plain-text message. Nil mailer means email delivery
// is not configured and only in-app notifications are written.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service fans submission events out to in-app notifications and, when a
// mailer is configured, to the provider's email. Every failure is logged and
// dropped: delivery is strictly best-effort and the submission that produced
// the event is already committed.
type Service struct {
	store  Store
	mailer Mailer
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store Store, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	// A nil *SMTPMailer arriving through the interface would pass the
	// interface nil check below but crash on Send.
	if m, ok := mailer.(*SMTPMailer); ok && m == nil {
		mailer = nil
	}
	return &Service{
		store:  store,
		mailer: mailer,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ services.Notifier = (*Service)(nil)

func (s *Service) SubmissionReceived(ev services.SubmissionEvent) {
	// Callers fire this on a bare goroutine; a panic here would take the
	// whole process down with it.
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("notification fan-out panicked", zap.Any("panic", r))
		}
	}()

	subject := fmt.Sprintf("New submission: %s", ev.TemplateName)
	body := fmt.Sprintf("A form was submitted at %s.", ev.At.Format(time.RFC1123))
	if ev.SubmitterName != "" {
		body = fmt.Sprintf("%s submitted a form at %s.", ev.SubmitterName, ev.At.Format(time.RFC1123))
	}

	n := &services.Notification{
		ID:         strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		ProviderID: ev.ProviderID,
		Kind:       "submission_" + ev.Kind,
		Subject:    subject,
		Body:       body,
		CreatedAt:  s.now(),
	}
	if err := s.store.AddNotification(n); err != nil {
		s.log.Warn("write notification", zap.String("provider_id", ev.ProviderID), zap.Error(err))
	}

	if s.mailer == nil {
		return
	}
	p, err := s.store.GetProvider(ev.ProviderID)
	if err != nil || p == nil {
		s.log.Warn("notify: provider lookup", zap.String("provider_id", ev.ProviderID), zap.Error(err))
		return
	}
	if err := s.mailer.Send(p.Email, subject, body); err != nil {
		s.log.Warn("notify: send mail", zap.String("to", p.Email), zap.Error(err))
	}
	if ev.SubmitterEmail != "" {
		confirm := fmt.Sprintf("Your %s form was received. Thank you.", ev.TemplateName)
		if err := s.mailer.Send(ev.SubmitterEmail, "Submission received", confirm); err != nil {
			s.log.Warn("notify: send confirmation", zap.String("to", ev.SubmitterEmail), zap.Error(err))
		}
	}
}
