package hubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/actionhub/internal/hub"
)

// mockService implements HubService with scriptable returns.
type mockService struct {
	alert   *hub.FlaggedAlert
	result  *hub.DispatchResult
	entries []*hub.AuditEntry
	err     error
}

func (m *mockService) Flag(_ context.Context, _, _ string, _ []hub.TeamMember) (*hub.FlaggedAlert, error) {
	return m.alert, m.err
}

func (m *mockService) GetDetail(_ context.Context, _ string) (*hub.FlaggedAlert, error) {
	return m.alert, m.err
}

func (m *mockService) ToggleFollow(_ context.Context, _, _ string) (*hub.FlaggedAlert, error) {
	return m.alert, m.err
}

func (m *mockService) SetStatus(_ context.Context, _ string, _ hub.Status, _ string) (*hub.FlaggedAlert, error) {
	return m.alert, m.err
}

func (m *mockService) AddGuest(_ context.Context, _, _, _, _ string) (*hub.FlaggedAlert, error) {
	return m.alert, m.err
}

func (m *mockService) Notify(_ context.Context, _ string, _ hub.TargetType, _, _ string) (*hub.DispatchResult, error) {
	return m.result, m.err
}

func (m *mockService) AuditTrail(_ context.Context, _ string) ([]*hub.AuditEntry, error) {
	return m.entries, m.err
}

func newTestRouter(t *testing.T, svc HubService) chi.Router {
	t.Helper()
	api := New(log.Nop(), svc)
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New(nil, nil) did not panic; expected panic for nil service")
		}
	}()
	New(nil, nil)
}

func TestHandleFlag(t *testing.T) {
	t.Parallel()

	svc := &mockService{alert: &hub.FlaggedAlert{ID: "fa-1", Status: hub.StatusNew}}
	r := newTestRouter(t, svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/hubs",
		`{"source_alert_id":"al-1","actor":"ops"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var got hub.FlaggedAlert
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "fa-1" {
		t.Errorf("ID = %q, want fa-1", got.ID)
	}
}

func TestHandleFlag_BadPayload(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &mockService{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing source alert id", `{"actor":"ops"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := doRequest(t, r, http.MethodPost, "/api/v1/hubs", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", hub.ErrNotFound, http.StatusNotFound},
		{"invalid transition", &hub.InvalidTransitionError{From: hub.StatusHandled, To: hub.StatusNew}, http.StatusConflict},
		{"duplicate email", &hub.DuplicateEmailError{Email: "a@b.com"}, http.StatusConflict},
		{"no eligible recipients", &hub.NoEligibleRecipientsError{Target: hub.TargetManagement}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRouter(t, &mockService{err: tt.err})
			w := doRequest(t, r, http.MethodGet, "/api/v1/hubs/fa-1", "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleSetStatus(t *testing.T) {
	t.Parallel()

	svc := &mockService{alert: &hub.FlaggedAlert{ID: "fa-1", Status: hub.StatusInProgress}}
	r := newTestRouter(t, svc)

	w := doRequest(t, r, http.MethodPut, "/api/v1/hubs/fa-1/status",
		`{"status":"in_progress","actor":"ops"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleAddGuest(t *testing.T) {
	t.Parallel()

	svc := &mockService{alert: &hub.FlaggedAlert{ID: "fa-1"}}
	r := newTestRouter(t, svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/hubs/fa-1/guests",
		`{"email":"a@b.com","actor":"ops"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/hubs/fa-1/guests", `{"actor":"ops"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without email = %d, want 400", w.Code)
	}
}

func TestHandleNotify_PartialFailureIsOK(t *testing.T) {
	t.Parallel()

	svc := &mockService{result: &hub.DispatchResult{
		PerRecipient: []hub.Delivery{
			{RecipientID: "g-1", Success: true},
			{RecipientID: "g-2", Success: false, Error: "bounce"},
		},
		SuccessCount: 1,
		FailureCount: 1,
	}}
	r := newTestRouter(t, svc)

	w := doRequest(t, r, http.MethodPost, "/api/v1/hubs/fa-1/notify",
		`{"target":"guests","message":"heads up","actor":"ops"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (partial failure is not an error)", w.Code)
	}
	var got hub.DispatchResult
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SuccessCount != 1 || got.FailureCount != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", got.SuccessCount, got.FailureCount)
	}
}

func TestHandleNotify_InvalidTarget(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &mockService{})

	w := doRequest(t, r, http.MethodPost, "/api/v1/hubs/fa-1/notify",
		`{"target":"everyone","message":"hi","actor":"ops"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleAuditTrail_EmptyIsArray(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &mockService{})

	w := doRequest(t, r, http.MethodGet, "/api/v1/hubs/fa-1/audit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"entries":[]`) {
		t.Errorf("body = %s, want empty entries array", w.Body.String())
	}
}
