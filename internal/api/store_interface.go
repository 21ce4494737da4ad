package api

import "github.com/careform/intake/internal/services"

// Store is the full persistence surface the HTTP layer wires together. One
// implementation (sqlite) backs every service; the per-service interfaces
// stay narrow so services and their tests never see more than they need.
type Store interface {
	services.AuthStore
	services.TemplateStore
	services.AssignmentStore
	services.DraftStore
	services.LinkStore
	services.SubmissionStore

	GetProvider(id string) (*services.Provider, error)
	AddNotification(n *services.Notification) error
	ListNotificationsByProvider(providerID string) ([]*services.Notification, error)
	MarkNotificationRead(providerID, id string) error
}
