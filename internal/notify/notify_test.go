package notify

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/careform/intake/internal/services"
)

type stubNotifyStore struct {
	notifications []*services.Notification
	providers     map[string]*services.Provider
}

func newStubNotifyStore() *stubNotifyStore {
	return &stubNotifyStore{providers: map[string]*services.Provider{
		"prov1": {ID: "prov1", Email: "provider@example.com"},
	}}
}

func (s *stubNotifyStore) AddNotification(n *services.Notification) error {
	copy := *n
	s.notifications = append(s.notifications, &copy)
	return nil
}

func (s *stubNotifyStore) GetProvider(id string) (*services.Provider, error) {
	if p, ok := s.providers[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

type recordingMailer struct {
	sent []string // "to|subject"
	err  error
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, to+"|"+subject)
	return m.err
}

type panickyMailer struct{}

func (panickyMailer) Send(to, subject, body string) error { panic("smtp gone") }

func sampleEvent() services.SubmissionEvent {
	return services.SubmissionEvent{
		Kind:           "external",
		ID:             "sub1",
		ProviderID:     "prov1",
		TemplateName:   "New Patient Intake",
		SubmitterName:  "Ana Torres",
		SubmitterEmail: "ana@example.com",
		At:             time.Unix(5000, 0).UTC(),
	}
}

func TestSubmissionReceivedWithoutMailer(t *testing.T) {
	store := newStubNotifyStore()

	// The env constructor returns a typed nil when SMTP is unconfigured;
	// wiring that straight in must behave as "no mailer", not crash.
	var unconfigured *SMTPMailer
	svc := NewService(store, unconfigured, zap.NewNop())

	svc.SubmissionReceived(sampleEvent())

	if len(store.notifications) != 1 {
		t.Fatalf("expected 1 in-app notification, got %d", len(store.notifications))
	}
	n := store.notifications[0]
	if n.ProviderID != "prov1" || n.Kind != "submission_external" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestSubmissionReceivedSendsBothEmails(t *testing.T) {
	store := newStubNotifyStore()
	mailer := &recordingMailer{}
	svc := NewService(store, mailer, zap.NewNop())

	svc.SubmissionReceived(sampleEvent())

	if len(mailer.sent) != 2 {
		t.Fatalf("expected provider + respondent mail, got %v", mailer.sent)
	}
	if mailer.sent[0] != "provider@example.com|New submission: New Patient Intake" {
		t.Fatalf("unexpected provider mail %q", mailer.sent[0])
	}
	if mailer.sent[1] != "ana@example.com|Submission received" {
		t.Fatalf("unexpected confirmation mail %q", mailer.sent[1])
	}
}

func TestSubmissionReceivedMailFailureIsSwallowed(t *testing.T) {
	store := newStubNotifyStore()
	mailer := &recordingMailer{err: errors.New("connection refused")}
	svc := NewService(store, mailer, zap.NewNop())

	svc.SubmissionReceived(sampleEvent())

	// The in-app notification still lands and nothing propagates.
	if len(store.notifications) != 1 {
		t.Fatalf("expected in-app notification despite mail failure, got %d", len(store.notifications))
	}
}

func TestSubmissionReceivedRecoversMailerPanic(t *testing.T) {
	store := newStubNotifyStore()
	svc := NewService(store, panickyMailer{}, zap.NewNop())

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped SubmissionReceived: %v", r)
		}
	}()
	svc.SubmissionReceived(sampleEvent())

	if len(store.notifications) != 1 {
		t.Fatalf("expected in-app notification before the panic, got %d", len(store.notifications))
	}
}
