package services

import (
	"time"

	"github.com/careform/intake/internal/forms"
)

// Provider is an account that authors templates, assigns them, and reviews
// submissions.
type Provider struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplateRecord wraps the authored template with ownership metadata. The
// embedded definition is the live, editable document; assignments and links
// always work from a frozen Clone of it.
type TemplateRecord struct {
	forms.Template
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Assignment directs a template at a known respondent.
type Assignment struct {
	ID           string            `json:"id"`
	TemplateID   string            `json:"template_id"`
	Snapshot     *forms.Template   `json:"snapshot"`
	RespondentID string            `json:"respondent_id"`
	ProviderID   string            `json:"provider_id"`
	Status       AssignmentStatus  `json:"status"`
	DueDate      *time.Time        `json:"due_date,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	SubmittedAt  *time.Time        `json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time        `json:"approved_at,omitempty"`
	Responses    forms.ResponseMap `json:"responses,omitempty"`
}

// Draft is the checkpointed in-progress state of one respondent session,
// for both the assignment and the public-link flow.
type Draft struct {
	SessionKey        string            `json:"session_key"`
	Responses         forms.ResponseMap `json:"responses"`
	CompletedSections []int             `json:"completed_sections"`
	SubmitterName     string            `json:"submitter_name,omitempty"`
	SubmitterEmail    string            `json:"submitter_email,omitempty"`
	SubmitterPhone    string            `json:"submitter_phone,omitempty"`
	Status            string            `json:"status"` // "draft" until finalized
	UpdatedAt         time.Time         `json:"updated_at"`
}

const (
	DraftStatusDraft     = "draft"
	DraftStatusSubmitted = "submitted"
)

// EditRequest is a respondent's petition to reopen a submitted assignment.
type EditRequest struct {
	ID           string            `json:"id"`
	AssignmentID string            `json:"assignment_id"`
	Reason       string            `json:"reason"`
	Status       EditRequestStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

type EditRequestStatus string

const (
	EditRequestPending  EditRequestStatus = "pending"
	EditRequestApproved EditRequestStatus = "approved"
	EditRequestDenied   EditRequestStatus = "denied"
)

// PublicLink is a shareable anonymous entry point into a template, bounded
// by expiry and quota, with the response language pinned at creation.
type PublicLink struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	ProviderID         string          `json:"provider_id"`
	TemplateID         string          `json:"template_id"`
	Snapshot           *forms.Template `json:"snapshot"`
	Language           string          `json:"language"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	MaxSubmissions     int             `json:"max_submissions,omitempty"` // 0 = unlimited
	CurrentSubmissions int             `json:"current_submissions"`
	Active             bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ExternalSubmission is a response that arrived through a public link.
type ExternalSubmission struct {
	ID             string            `json:"id"`
	LinkID         string            `json:"link_id"`
	SubmitterName  string            `json:"submitter_name"`
	SubmitterEmail string            `json:"submitter_email"`
	SubmitterPhone string            `json:"submitter_phone,omitempty"`
	Responses      forms.ResponseMap `json:"responses"`
	Signature      string            `json:"signature,omitempty"`
	Status         SubmissionStatus  `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Notification is an in-app message for a provider, written by the
// submit-event fan-out.
type Notification struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}

// SubmissionEvent is the logical event emitted when a form enters
// "submitted". External delivery (in-app, push, email) consumes it; the
// state transition never blocks on any consumer.
type SubmissionEvent struct {
	Kind           string    `json:"kind"` // "assignment" or "external"
	ID             string    `json:"id"`
	ProviderID     string    `json:"provider_id"`
	TemplateName   string    `json:"template_name"`
	SubmitterName  string    `json:"submitter_name,omitempty"`
	SubmitterEmail string    `json:"submitter_email,omitempty"`
	At             time.Time `json:"at"`
}

// Notifier consumes submission events. Implementations must be safe for
// concurrent use and must never panic into the caller.
type Notifier interface {
	SubmissionReceived(ev SubmissionEvent)
}
