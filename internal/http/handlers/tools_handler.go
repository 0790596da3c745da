// Package handlers exposes the tool catalog over HTTP for tool-calling
// agent platforms: a discovery endpoint, the main call-tool endpoint, and
// the direct per-tool endpoints kept for platforms that cannot speak the
// generic tool-call shape.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicvoice/juvonno-mcp/internal/tools"
	"github.com/clinicvoice/juvonno-mcp/pkg/logging"
)

// ToolCallRequest is the generic tool-invocation payload.
type ToolCallRequest struct {
	// Name is the catalog tool to invoke.
	Name string `json:"name"`
	// Arguments is the named argument object supplied by the agent's LLM.
	Arguments map[string]any `json:"arguments"`
	// ToolCallID, when supplied, is echoed back so the platform can
	// correlate the result with its pending call.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCallResponse wraps the uniform envelope with the correlation ID.
type ToolCallResponse struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	tools.Envelope
}

// Typed bodies for the direct endpoints.

type LocationsRequest struct {
	PostalCode string `json:"postal_code"`
	Subdomain  string `json:"subdomain"`
	APIKey     string `json:"api_key"`
}

type ProvidersRequest struct {
	LocationID  string `json:"location_id"`
	ServiceType string `json:"service_type,omitempty"`
	Subdomain   string `json:"subdomain"`
	APIKey      string `json:"api_key"`
}

type SlotsRequest struct {
	ProviderID string `json:"provider_id"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	Subdomain  string `json:"subdomain"`
	APIKey     string `json:"api_key"`
}

type BookAppointmentRequest struct {
	ProviderID      string `json:"provider_id"`
	AppointmentTime string `json:"appointment_time"`
	AppointmentType string `json:"appointment_type"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	PatientPhone    string `json:"patient_phone"`
	Subdomain       string `json:"subdomain"`
	APIKey          string `json:"api_key"`
}

type AppointmentTypesRequest struct {
	Subdomain string `json:"subdomain"`
	APIKey    string `json:"api_key"`
}

// toolDispatcher is the slice of the dispatcher this handler needs.
type toolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]string) tools.Envelope
	LookupAppointment(ctx context.Context, appointmentID string, args map[string]string) tools.Envelope
}

// ToolsHandler serves the tool discovery and invocation surface.
type ToolsHandler struct {
	dispatcher toolDispatcher
	logger     *logging.Logger
	version    string
}

// ToolsHandlerConfig configures the ToolsHandler.
type ToolsHandlerConfig struct {
	Dispatcher toolDispatcher
	Logger     *logging.Logger
	Version    string
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(cfg ToolsHandlerConfig) *ToolsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &ToolsHandler{
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
		version:    cfg.Version,
	}
}

// Health is the GET / service info endpoint.
func (h *ToolsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "online",
		"service": "juvonno-tool-server",
		"version": h.version,
		"endpoints": []string{
			"/tools",
			"/call-tool",
			"/get-locations",
			"/get-providers",
			"/get-slots",
			"/book-appointment",
			"/get-appointment-types",
		},
	})
}

// ListTools is the GET /tools discovery endpoint. The catalog is immutable,
// so the response is stable for the process lifetime.
func (h *ToolsHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	defs := tools.Catalog()
	schemas := make([]tools.ToolSchema, 0, len(defs))
	for _, d := range defs {
		schemas = append(schemas, d.Schema())
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": schemas})
}

// CallTool is the POST /call-tool endpoint, the main agent entrypoint.
func (h *ToolsHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error("call-tool: failed to read body", "error", err)
		h.writeEnvelope(w, "", tools.Failure(tools.ErrValidationFailure, "unreadable request body"))
		return
	}

	var req ToolCallRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Error("call-tool: failed to parse request", "error", err)
		h.writeEnvelope(w, "", tools.Failure(tools.ErrValidationFailure, "request body must be JSON with name and arguments"))
		return
	}

	h.logger.Info("call-tool: received",
		"tool", req.Name,
		"tool_call_id", req.ToolCallID,
	)

	env := h.dispatcher.Dispatch(r.Context(), req.Name, tools.NormalizeArgs(req.Arguments))
	h.writeEnvelope(w, req.ToolCallID, env)
}

// GetLocations is the POST /get-locations direct endpoint.
func (h *ToolsHandler) GetLocations(w http.ResponseWriter, r *http.Request) {
	var req LocationsRequest
	if !decodeBody(w, r, &req, h) {
		return
	}
	env := h.dispatcher.Dispatch(r.Context(), tools.ToolGetLocations, map[string]string{
		"postal_code": req.PostalCode,
		"subdomain":   req.Subdomain,
		"api_key":     req.APIKey,
	})
	h.writeEnvelope(w, "", env)
}

// GetProviders is the POST /get-providers direct endpoint.
func (h *ToolsHandler) GetProviders(w http.ResponseWriter, r *http.Request) {
	var req ProvidersRequest
	if !decodeBody(w, r, &req, h) {
		return
	}
	env := h.dispatcher.Dispatch(r.Context(), tools.ToolGetProviders, map[string]string{
		"location_id":  req.LocationID,
		"service_type": req.ServiceType,
		"subdomain":    req.Subdomain,
		"api_key":      req.APIKey,
	})
	h.writeEnvelope(w, "", env)
}

// GetSlots is the POST /get-slots direct endpoint.
func (h *ToolsHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	var req SlotsRequest
	if !decodeBody(w, r, &req, h) {
		return
	}
	env := h.dispatcher.Dispatch(r.Context(), tools.ToolGetSlots, map[string]string{
		"provider_id": req.ProviderID,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"subdomain":   req.Subdomain,
		"api_key":     req.APIKey,
	})
	h.writeEnvelope(w, "", env)
}

// BookAppointment is the POST /book-appointment direct endpoint.
func (h *ToolsHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if !decodeBody(w, r, &req, h) {
		return
	}
	env := h.dispatcher.Dispatch(r.Context(), tools.ToolBookAppointment, map[string]string{
		"provider_id":      req.ProviderID,
		"appointment_time": req.AppointmentTime,
		"appointment_type": req.AppointmentType,
		"patient_name":     req.PatientName,
		"patient_email":    req.PatientEmail,
		"patient_phone":    req.PatientPhone,
		"subdomain":        req.Subdomain,
		"api_key":          req.APIKey,
	})
	h.writeEnvelope(w, "", env)
}

// GetAppointmentTypes is the POST /get-appointment-types direct endpoint.
func (h *ToolsHandler) GetAppointmentTypes(w http.ResponseWriter, r *http.Request) {
	var req AppointmentTypesRequest
	if !decodeBody(w, r, &req, h) {
		return
	}
	env := h.dispatcher.Dispatch(r.Context(), tools.ToolGetAppointmentTypes, map[string]string{
		"subdomain": req.Subdomain,
		"api_key":   req.APIKey,
	})
	h.writeEnvelope(w, "", env)
}

// GetAppointment is the GET /appointments/{appointmentID} endpoint.
// Credentials come from query parameters, with the usual env fallback.
func (h *ToolsHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "appointmentID")
	q := r.URL.Query()
	env := h.dispatcher.LookupAppointment(r.Context(), appointmentID, map[string]string{
		"subdomain": q.Get("subdomain"),
		"api_key":   q.Get("api_key"),
	})
	h.writeEnvelope(w, "", env)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, h *ToolsHandler) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body", "path", r.URL.Path, "error", err)
		h.writeEnvelope(w, "", tools.Failure(tools.ErrValidationFailure, "request body must be valid JSON"))
		return false
	}
	return true
}

func (h *ToolsHandler) writeEnvelope(w http.ResponseWriter, toolCallID string, env tools.Envelope) {
	writeJSON(w, statusForEnvelope(env), ToolCallResponse{ToolCallID: toolCallID, Envelope: env})
}

// statusForEnvelope maps the envelope taxonomy to HTTP statuses. Callers
// are expected to branch on the envelope's status field; the HTTP code is
// for infrastructure (logs, proxies, dashboards).
func statusForEnvelope(env tools.Envelope) int {
	if env.Error == nil {
		return http.StatusOK
	}
	switch env.Error.Kind {
	case tools.ErrValidationFailure:
		return http.StatusBadRequest
	case tools.ErrAuthenticationFailed:
		return http.StatusUnauthorized
	case tools.ErrSlotConflict:
		return http.StatusConflict
	case tools.ErrUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case tools.ErrUpstreamRejected, tools.ErrUpstreamMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
