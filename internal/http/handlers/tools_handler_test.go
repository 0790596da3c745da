package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicvoice/juvonno-mcp/internal/tools"
)

type stubDispatcher struct {
	lastName string
	lastArgs map[string]string
	lastID   string
	env      tools.Envelope
}

func (s *stubDispatcher) Dispatch(ctx context.Context, name string, args map[string]string) tools.Envelope {
	s.lastName = name
	s.lastArgs = args
	return s.env
}

func (s *stubDispatcher) LookupAppointment(ctx context.Context, appointmentID string, args map[string]string) tools.Envelope {
	s.lastID = appointmentID
	s.lastArgs = args
	return s.env
}

func newTestHandler(env tools.Envelope) (*ToolsHandler, *stubDispatcher) {
	stub := &stubDispatcher{env: env}
	h := NewToolsHandler(ToolsHandlerConfig{Dispatcher: stub, Version: "1.0.0"})
	return h, stub
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(tools.Envelope{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "juvonno-tool-server", body["service"])
}

func TestListToolsStable(t *testing.T) {
	h, _ := newTestHandler(tools.Envelope{})

	var bodies []string
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ListTools(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}

	var payload struct {
		Tools []tools.ToolSchema `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &payload))
	require.Len(t, payload.Tools, 5)
	// Discovery is immutable for the process lifetime.
	assert.JSONEq(t, bodies[0], bodies[1])
}

func TestCallTool(t *testing.T) {
	h, stub := newTestHandler(tools.Success(tools.LocationsResult{}, "Found 0 location(s) near postal code L1V 1B5"))

	payload := `{"name":"get_locations_by_postal_code","tool_call_id":"call_1","arguments":{"postal_code":"L1V 1B5","subdomain":"medrehabgroup","api_key":"key","location_id":4}}`
	rec := httptest.NewRecorder()
	h.CallTool(rec, httptest.NewRequest(http.MethodPost, "/call-tool", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tools.ToolGetLocations, stub.lastName)
	assert.Equal(t, "L1V 1B5", stub.lastArgs["postal_code"])
	assert.Equal(t, "4", stub.lastArgs["location_id"], "numeric args are stringified")

	var resp ToolCallResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "call_1", resp.ToolCallID)
	assert.Equal(t, tools.StatusSuccess, resp.Status)
}

func TestCallToolBadJSON(t *testing.T) {
	h, _ := newTestHandler(tools.Envelope{})
	rec := httptest.NewRecorder()
	h.CallTool(rec, httptest.NewRequest(http.MethodPost, "/call-tool", bytes.NewBufferString("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ToolCallResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, tools.ErrValidationFailure, resp.Error.Kind)
}

func TestDirectSlotsEndpoint(t *testing.T) {
	h, stub := newTestHandler(tools.Success(tools.SlotsResult{}, "Found 0 available slot(s) for provider 3"))

	payload := `{"provider_id":"3","start_date":"2026-09-01","end_date":"2026-09-07","subdomain":"medrehabgroup","api_key":"key"}`
	rec := httptest.NewRecorder()
	h.GetSlots(rec, httptest.NewRequest(http.MethodPost, "/get-slots", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tools.ToolGetSlots, stub.lastName)
	assert.Equal(t, "3", stub.lastArgs["provider_id"])
	assert.Equal(t, "2026-09-01", stub.lastArgs["start_date"])
}

func TestEnvelopeStatusMapping(t *testing.T) {
	cases := []struct {
		kind string
		want int
	}{
		{tools.ErrValidationFailure, http.StatusBadRequest},
		{tools.ErrAuthenticationFailed, http.StatusUnauthorized},
		{tools.ErrSlotConflict, http.StatusConflict},
		{tools.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{tools.ErrUpstreamRejected, http.StatusBadGateway},
		{tools.ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h, _ := newTestHandler(tools.Failure(tc.kind, "boom"))
		payload := `{"name":"book_appointment","arguments":{}}`
		rec := httptest.NewRecorder()
		h.CallTool(rec, httptest.NewRequest(http.MethodPost, "/call-tool", bytes.NewBufferString(payload)))
		assert.Equal(t, tc.want, rec.Code, "kind %s", tc.kind)
	}
}

func TestGetAppointmentRoute(t *testing.T) {
	h, stub := newTestHandler(tools.Success(tools.AppointmentResult{ConfirmationID: "900"}, "Appointment 900 found"))

	r := chi.NewRouter()
	r.Get("/appointments/{appointmentID}", h.GetAppointment)

	req := httptest.NewRequest(http.MethodGet, "/appointments/900?subdomain=medrehabgroup&api_key=key", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "900", stub.lastID)
	assert.Equal(t, "medrehabgroup", stub.lastArgs["subdomain"])
}
