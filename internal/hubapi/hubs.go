package hubapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/actionhub/internal/hub"
)

type flagRequest struct {
	SourceAlertID string           `json:"source_alert_id"`
	Actor         string           `json:"actor"`
	TeamMembers   []hub.TeamMember `json:"team_members,omitempty"`
}

func (a *API) handleFlag(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceAlertID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	f, err := a.svc.Flag(r.Context(), req.SourceAlertID, req.Actor, req.TeamMembers)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (a *API) handleGetDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("actionhub.hub.id", id))

	f, err := a.svc.GetDetail(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("actionhub.hub.status", string(f.Status)))
	writeJSON(w, http.StatusOK, f)
}

type actorRequest struct {
	Actor string `json:"actor"`
}

func (a *API) handleToggleFollow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	f, err := a.svc.ToggleFollow(r.Context(), id, req.Actor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type statusRequest struct {
	Status hub.Status `json:"status"`
	Actor  string     `json:"actor"`
}

func (a *API) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	f, err := a.svc.SetStatus(r.Context(), id, req.Status, req.Actor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type guestRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Actor string `json:"actor"`
}

func (a *API) handleAddGuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	f, err := a.svc.AddGuest(r.Context(), id, req.Email, req.Name, req.Actor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

type notifyRequest struct {
	Target  hub.TargetType `json:"target"`
	Message string         `json:"message"`
	Actor   string         `json:"actor"`
}

func (a *API) handleNotify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	switch req.Target {
	case hub.TargetGuests, hub.TargetTeam, hub.TargetManagement:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid target"})
		return
	}

	res, err := a.svc.Notify(r.Context(), id, req.Target, req.Message, req.Actor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	// Partial failure is still a successful call; counts are the payload.
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := a.svc.AuditTrail(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*hub.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
