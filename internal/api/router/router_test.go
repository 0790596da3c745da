package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicvoice/juvonno-mcp/internal/http/handlers"
	"github.com/clinicvoice/juvonno-mcp/internal/juvonno"
	"github.com/clinicvoice/juvonno-mcp/internal/tools"
)

type fakeUpstream struct{}

func (fakeUpstream) FindLocations(ctx context.Context, postalCode string) ([]juvonno.Location, error) {
	return []juvonno.Location{{ID: "4", Name: "MedRehab Group Pickering", PostalCode: postalCode}}, nil
}

func (fakeUpstream) FindProviders(ctx context.Context, locationID, serviceType string) ([]juvonno.Provider, error) {
	return nil, nil
}

func (fakeUpstream) FindSlots(ctx context.Context, providerID, startDate, endDate string) ([]juvonno.Slot, error) {
	return nil, nil
}

func (fakeUpstream) CreateAppointment(ctx context.Context, req juvonno.BookingRequest) (*juvonno.Appointment, error) {
	return &juvonno.Appointment{ID: "900"}, nil
}

func (fakeUpstream) GetAppointmentTypes(ctx context.Context) ([]juvonno.AppointmentType, error) {
	return nil, nil
}

func (fakeUpstream) GetAppointment(ctx context.Context, appointmentID string) (*juvonno.Appointment, error) {
	return &juvonno.Appointment{ID: appointmentID}, nil
}

func newTestRouter() http.Handler {
	dispatcher := tools.NewDispatcher(tools.DispatcherConfig{
		Factory: func(creds juvonno.Credentials) tools.Upstream { return fakeUpstream{} },
	})
	toolsHandler := handlers.NewToolsHandler(handlers.ToolsHandlerConfig{Dispatcher: dispatcher})
	return New(&Config{
		ToolsHandler:       toolsHandler,
		CORSAllowedOrigins: []string{"*"},
	})
}

func TestRouterHealthAndDiscovery(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/", "/health", "/tools"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
	}
}

func TestRouterCallToolEndToEnd(t *testing.T) {
	r := newTestRouter()

	payload := `{"name":"get_locations_by_postal_code","arguments":{"postal_code":"L1V 1B5","subdomain":"medrehabgroup","api_key":"key"}}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/call-tool", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status string `json:"status"`
		Result struct {
			Locations []juvonno.Location `json:"locations"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Result.Locations, 1)
	assert.Equal(t, "4", resp.Result.Locations[0].ID)
}

func TestRouterValidationFailure(t *testing.T) {
	r := newTestRouter()

	payload := `{"name":"get_available_slots","arguments":{"subdomain":"medrehabgroup","api_key":"key"}}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/call-tool", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Kind   string   `json:"kind"`
			Params []string `json:"params"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "validation_failure", resp.Error.Kind)
	assert.Equal(t, []string{"provider_id"}, resp.Error.Params)
}

func TestRouterDirectBooking(t *testing.T) {
	r := newTestRouter()

	payload := `{
		"provider_id": "3",
		"appointment_time": "2026-09-02T14:00:00",
		"appointment_type": "New Patient",
		"patient_name": "Jane Doe",
		"patient_email": "jane@example.com",
		"patient_phone": "905-555-0100",
		"subdomain": "medrehabgroup",
		"api_key": "key"
	}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/book-appointment", bytes.NewBufferString(payload)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status string `json:"status"`
		Result struct {
			ConfirmationID string `json:"confirmation_id"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "900", resp.Result.ConfirmationID)
}

func TestRouterAppointmentLookup(t *testing.T) {
	r := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/900?subdomain=medrehabgroup&api_key=key", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
