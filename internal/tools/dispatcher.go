package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clinicvoice/juvonno-mcp/internal/juvonno"
	"github.com/clinicvoice/juvonno-mcp/internal/observability/metrics"
	"github.com/clinicvoice/juvonno-mcp/pkg/logging"
)

// Upstream is the adapter contract the dispatcher drives. One client is
// built per call from that call's credentials; nothing is shared or cached
// across calls.
type Upstream interface {
	FindLocations(ctx context.Context, postalCode string) ([]juvonno.Location, error)
	FindProviders(ctx context.Context, locationID, serviceType string) ([]juvonno.Provider, error)
	FindSlots(ctx context.Context, providerID, startDate, endDate string) ([]juvonno.Slot, error)
	CreateAppointment(ctx context.Context, req juvonno.BookingRequest) (*juvonno.Appointment, error)
	GetAppointmentTypes(ctx context.Context) ([]juvonno.AppointmentType, error)
	GetAppointment(ctx context.Context, appointmentID string) (*juvonno.Appointment, error)
}

// ClientFactory builds an Upstream for one call's resolved credentials.
type ClientFactory func(creds juvonno.Credentials) Upstream

// Dispatcher routes validated tool calls to the upstream adapter and
// applies the booking-workflow policies. It holds no mutable state, so
// concurrent calls need no locking.
type Dispatcher struct {
	factory  ClientFactory
	defaults juvonno.Credentials
	logger   *logging.Logger
	metrics  *metrics.ToolMetrics
}

// DispatcherConfig configures the Dispatcher.
type DispatcherConfig struct {
	Factory ClientFactory
	// DefaultCredentials are environment-supplied fallbacks used when a
	// call omits subdomain/api_key. Per-call values always win.
	DefaultCredentials juvonno.Credentials
	Logger             *logging.Logger
	Metrics            *metrics.ToolMetrics
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Dispatcher{
		factory:  cfg.Factory,
		defaults: cfg.DefaultCredentials,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Dispatch validates the arguments against the tool's schema and runs the
// matching workflow. Every outcome, including a panic in the pipeline,
// comes back as an envelope; nothing escapes to the hosting surface.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]string) (env Envelope) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool dispatch panicked", "tool", name, "panic", r)
			env = Failure(ErrInternal, fmt.Sprintf("internal error in tool %s", name))
		}
		status := StatusSuccess
		if env.Error != nil {
			status = env.Error.Kind
		}
		d.metrics.ObserveCall(name, status, time.Since(start).Seconds())
	}()

	def, ok := Lookup(name)
	if !ok {
		return Failure(ErrValidationFailure, fmt.Sprintf("unknown tool: %s", name))
	}

	// Resolve credentials once per call: explicit arguments override the
	// environment defaults. Validation then sees the resolved values, so a
	// call missing both fails fast naming the credential params.
	args = d.withDefaultCredentials(args)

	if violations := Validate(def, args); len(violations) > 0 {
		d.logger.Warn("tool arguments rejected",
			"tool", name, "params", ViolationParams(violations))
		return ValidationFailure(violations)
	}

	creds := juvonno.Credentials{Subdomain: args["subdomain"], APIKey: args["api_key"]}.Sanitized()
	client := d.factory(creds)

	switch def.Name {
	case ToolGetLocations:
		return d.getLocations(ctx, client, args)
	case ToolGetProviders:
		return d.getProviders(ctx, client, args)
	case ToolGetSlots:
		return d.getSlots(ctx, client, args)
	case ToolBookAppointment:
		return d.bookAppointment(ctx, client, args)
	case ToolGetAppointmentTypes:
		return d.getAppointmentTypes(ctx, client)
	default:
		// Catalog row without a dispatch case is a programming error.
		return Failure(ErrInternal, fmt.Sprintf("tool %s has no dispatch case", name))
	}
}

// LookupAppointment fetches one appointment by ID. This is not part of the
// tool catalog; it backs the direct REST endpoint.
func (d *Dispatcher) LookupAppointment(ctx context.Context, appointmentID string, args map[string]string) Envelope {
	if strings.TrimSpace(appointmentID) == "" {
		return Failure(ErrValidationFailure, "appointment id is required", "appointment_id")
	}
	args = d.withDefaultCredentials(args)
	creds := juvonno.Credentials{Subdomain: args["subdomain"], APIKey: args["api_key"]}
	if !creds.Complete() {
		return Failure(ErrValidationFailure, "missing credentials", "subdomain", "api_key")
	}
	client := d.factory(creds.Sanitized())
	appt, err := client.GetAppointment(ctx, appointmentID)
	if err != nil {
		return FromUpstreamError(err)
	}
	return Success(AppointmentResult{Appointment: appt, ConfirmationID: appt.ID},
		fmt.Sprintf("Appointment %s found", appt.ID))
}

func (d *Dispatcher) withDefaultCredentials(args map[string]string) map[string]string {
	merged := make(map[string]string, len(args)+2)
	for k, v := range args {
		merged[k] = v
	}
	if strings.TrimSpace(merged["subdomain"]) == "" && d.defaults.Subdomain != "" {
		merged["subdomain"] = d.defaults.Subdomain
	}
	if strings.TrimSpace(merged["api_key"]) == "" && d.defaults.APIKey != "" {
		merged["api_key"] = d.defaults.APIKey
	}
	return merged
}

// ----- Result payloads -----

type LocationsResult struct {
	Locations []juvonno.Location `json:"locations"`
}

type ProvidersResult struct {
	Providers []juvonno.Provider `json:"providers"`
}

type SlotsResult struct {
	Slots []juvonno.Slot `json:"available_slots"`
}

type AppointmentResult struct {
	Appointment    *juvonno.Appointment `json:"appointment"`
	ConfirmationID string               `json:"confirmation_id"`
}

type AppointmentTypesResult struct {
	Types []juvonno.AppointmentType `json:"appointment_types"`
}

// ----- Per-tool workflows -----

func (d *Dispatcher) getLocations(ctx context.Context, client Upstream, args map[string]string) Envelope {
	postalCode := args["postal_code"]
	locations, err := client.FindLocations(ctx, postalCode)
	if err != nil {
		return FromUpstreamError(err)
	}
	// An empty match list is a successful answer, not a failure; ambiguous
	// multi-match results are returned as-is for the caller to resolve.
	return Success(LocationsResult{Locations: locations},
		fmt.Sprintf("Found %d location(s) near postal code %s", len(locations), postalCode))
}

func (d *Dispatcher) getProviders(ctx context.Context, client Upstream, args map[string]string) Envelope {
	locationID := args["location_id"]
	serviceType := args["service_type"]

	providers, err := client.FindProviders(ctx, locationID, serviceType)
	if err != nil {
		return FromUpstreamError(err)
	}

	// The adapter may not filter server-side; filter here regardless.
	if serviceType != "" {
		filtered := providers[:0]
		for _, p := range providers {
			if providerOffersService(p, serviceType) {
				filtered = append(filtered, p)
			}
		}
		providers = filtered
	}

	msg := fmt.Sprintf("Found %d provider(s) at location %s", len(providers), locationID)
	if serviceType != "" {
		msg = fmt.Sprintf("Found %d provider(s) for %s at location %s", len(providers), serviceType, locationID)
	}
	return Success(ProvidersResult{Providers: providers}, msg)
}

func providerOffersService(p juvonno.Provider, serviceType string) bool {
	for _, tag := range p.Services {
		if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(serviceType)) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) getSlots(ctx context.Context, client Upstream, args map[string]string) Envelope {
	providerID := args["provider_id"]
	startDate := args["start_date"]
	endDate := args["end_date"]

	// Date-range sanity is a local validation concern; it must never reach
	// upstream.
	if startDate != "" && endDate != "" {
		start, _ := ParseDatetime(startDate)
		end, _ := ParseDatetime(endDate)
		if start.After(end) {
			return ValidationFailure([]Violation{
				{Param: "start_date", Message: "start_date must not be after end_date"},
				{Param: "end_date", Message: "end_date must not be before start_date"},
			})
		}
	}

	slots, err := client.FindSlots(ctx, providerID, startDate, endDate)
	if err != nil {
		return FromUpstreamError(err)
	}

	open := make([]juvonno.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			open = append(open, s)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].StartAt.Before(open[j].StartAt) })

	return Success(SlotsResult{Slots: open},
		fmt.Sprintf("Found %d available slot(s) for provider %s", len(open), providerID))
}

func (d *Dispatcher) bookAppointment(ctx context.Context, client Upstream, args map[string]string) Envelope {
	if violations := validatePatientContact(args); len(violations) > 0 {
		return ValidationFailure(violations)
	}

	req := juvonno.BookingRequest{
		ProviderID:      args["provider_id"],
		StartTime:       args["appointment_time"],
		AppointmentType: args["appointment_type"],
		Patient: juvonno.Patient{
			Name:  args["patient_name"],
			Email: args["patient_email"],
			Phone: args["patient_phone"],
		},
	}

	// No retry on any failure here: Juvonno exposes no idempotency key, so
	// a blind retry could double-book the patient.
	appt, err := client.CreateAppointment(ctx, req)
	if err != nil {
		d.logger.Warn("booking failed",
			"provider_id", req.ProviderID, "kind", juvonno.KindOf(err), "error", err)
		return FromUpstreamError(err)
	}

	d.logger.Info("appointment booked",
		"appointment_id", appt.ID, "provider_id", appt.ProviderID)
	return Success(AppointmentResult{Appointment: appt, ConfirmationID: appt.ID},
		"Appointment booked successfully")
}

// validatePatientContact applies the minimal well-formedness checks for the
// booking tool's contact fields, collecting every violation.
func validatePatientContact(args map[string]string) []Violation {
	var violations []Violation

	email := strings.TrimSpace(args["patient_email"])
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		violations = append(violations, Violation{
			Param:   "patient_email",
			Message: "must be a valid email address",
		})
	}

	digits := 0
	for _, r := range args["patient_phone"] {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		violations = append(violations, Violation{
			Param:   "patient_phone",
			Message: "must contain at least 7 digits",
		})
	}
	return violations
}

func (d *Dispatcher) getAppointmentTypes(ctx context.Context, client Upstream) Envelope {
	types, err := client.GetAppointmentTypes(ctx)
	if err != nil {
		return FromUpstreamError(err)
	}
	return Success(AppointmentTypesResult{Types: types},
		fmt.Sprintf("Found %d appointment type(s)", len(types)))
}
