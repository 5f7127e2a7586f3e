// Package hubapi exposes the hub coordinator's operations over HTTP.
package hubapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/actionhub/internal/hub"
)

// HubService defines the coordinator operations hubapi needs.
type HubService interface {
	Flag(ctx context.Context, sourceAlertID, actor string, team []hub.TeamMember) (*hub.FlaggedAlert, error)
	GetDetail(ctx context.Context, id string) (*hub.FlaggedAlert, error)
	ToggleFollow(ctx context.Context, id, actor string) (*hub.FlaggedAlert, error)
	SetStatus(ctx context.Context, id string, target hub.Status, actor string) (*hub.FlaggedAlert, error)
	AddGuest(ctx context.Context, id, email, name, actor string) (*hub.FlaggedAlert, error)
	Notify(ctx context.Context, id string, target hub.TargetType, message, actor string) (*hub.DispatchResult, error)
	AuditTrail(ctx context.Context, id string) ([]*hub.AuditEntry, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    HubService
}

// New creates a new API handler.
func New(logger log.Logger, svc HubService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("hub service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/hubs", func(r chi.Router) {
		r.Post("/", a.handleFlag)
		r.Get("/{id}", a.handleGetDetail)
		r.Post("/{id}/follow", a.handleToggleFollow)
		r.Put("/{id}/status", a.handleSetStatus)
		r.Post("/{id}/guests", a.handleAddGuest)
		r.Post("/{id}/notify", a.handleNotify)
		r.Get("/{id}/audit", a.handleAuditTrail)
	})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Validation errors are
// surfaced unchanged in the body; unexpected errors become opaque 500s.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidTransition *hub.InvalidTransitionError
		duplicateEmail    *hub.DuplicateEmailError
		noRecipients      *hub.NoEligibleRecipientsError
	)

	switch {
	case errors.Is(err, hub.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.As(err, &invalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": invalidTransition.Error()})
	case errors.As(err, &duplicateEmail):
		writeJSON(w, http.StatusConflict, map[string]string{"error": duplicateEmail.Error()})
	case errors.As(err, &noRecipients):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": noRecipients.Error()})
	default:
		a.logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
