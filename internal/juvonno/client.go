package juvonno

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/clinicvoice/juvonno-mcp/pkg/logging"
)

const (
	defaultTimeout = 20 * time.Second

	// Juvonno truncation limit for error bodies carried in failures.
	maxErrorBody = 300

	availabilityWindowDays = 7
)

// Client talks to one Juvonno tenant. It is cheap to construct and meant to
// live for a single tool call; credentials are never shared across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	logger     *logging.Logger
}

// NewClient creates a client for the given tenant credentials. A zero
// timeout falls back to 20s so no upstream call can hang indefinitely.
func NewClient(creds Credentials, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	creds = creds.Sanitized()
	return &Client{
		baseURL:    fmt.Sprintf("https://%s.juvonno.com/api", creds.Subdomain),
		httpClient: &http.Client{Timeout: timeout},
		creds:      creds,
		logger:     logger,
	}
}

// ValidateCredentials checks the API key against the branches endpoint.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	var out json.RawMessage
	return c.do(ctx, "validate_credentials", http.MethodGet, "/branches", nil, nil, http.StatusOK, &out)
}

// FindLocations returns clinic branches near a postal code. Postal matching
// is delegated entirely to Juvonno; identifiers stay opaque.
func (c *Client) FindLocations(ctx context.Context, postalCode string) ([]Location, error) {
	q := url.Values{}
	if strings.TrimSpace(postalCode) != "" {
		q.Set("postal_code", postalCode)
	}

	var records []branchRecord
	if err := c.do(ctx, "find_locations", http.MethodGet, "/branches", q, nil, http.StatusOK, &records); err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(records))
	for _, r := range records {
		locations = append(locations, Location{
			ID:         string(r.ID),
			Name:       orUnknown(r.Name),
			Address:    orUnknown(r.Address),
			City:       r.City,
			Province:   r.Province,
			PostalCode: orUnknown(r.Postal),
			Phone:      r.Phone,
		})
	}
	return locations, nil
}

// FindProviders returns practitioners at a branch. Juvonno's options
// endpoint returns providers for every branch, so the location filter is
// applied here; service-type filtering happens again in the dispatcher.
func (c *Client) FindProviders(ctx context.Context, locationID, serviceType string) ([]Provider, error) {
	var records []providerRecord
	if err := c.do(ctx, "find_providers", http.MethodGet, "/branches/options", nil, nil, http.StatusOK, &records); err != nil {
		return nil, err
	}

	providers := make([]Provider, 0, len(records))
	for _, r := range records {
		recLocation := string(r.LocationID)
		if recLocation == "" {
			recLocation = string(r.BranchID)
		}
		if locationID != "" && recLocation != "" && recLocation != locationID {
			continue
		}
		name := r.Name
		if name == "" {
			name = r.FullName
		}
		providers = append(providers, Provider{
			ID:         string(r.ID),
			Name:       orUnknown(name),
			LocationID: orUnknown(recLocation),
			Services:   r.Services,
		})
	}
	return providers, nil
}

// FindSlots returns open appointment windows for a provider. Empty dates
// default to a one-week window starting today. Entries without a parseable
// start time are dropped rather than surfaced as errors.
func (c *Client) FindSlots(ctx context.Context, providerID, startDate, endDate string) ([]Slot, error) {
	if strings.TrimSpace(startDate) == "" {
		startDate = time.Now().Format("2006-01-02")
	}
	if strings.TrimSpace(endDate) == "" {
		endDate = time.Now().AddDate(0, 0, availabilityWindowDays).Format("2006-01-02")
	}
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)

	path := "/appointments/availability"
	if strings.TrimSpace(providerID) != "" {
		path += "/" + url.PathEscape(providerID)
	}

	var records []slotRecord
	if err := c.do(ctx, "find_slots", http.MethodGet, path, q, nil, http.StatusOK, &records); err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, len(records))
	for _, r := range records {
		start, ok := parseUpstreamTime(firstNonEmpty(r.StartTime, r.Start))
		if !ok {
			continue
		}
		end, _ := parseUpstreamTime(firstNonEmpty(r.EndTime, r.End))
		owner := string(r.ProviderID)
		if owner == "" {
			owner = providerID
		}
		available := true
		if r.Available != nil {
			available = *r.Available
		}
		slots = append(slots, Slot{
			ProviderID: owner,
			StartAt:    start,
			EndAt:      end,
			Available:  available,
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartAt.Before(slots[j].StartAt) })
	return slots, nil
}

// CreateAppointment books a visit: resolve or create the patient record,
// then write the appointment. Juvonno gives no idempotency key, so calling
// this twice with identical input creates two appointments.
func (c *Client) CreateAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	patientID, err := c.ensurePatient(ctx, req.Patient)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"patient_id":          patientID,
		"provider_id":         req.ProviderID,
		"start_time":          req.StartTime,
		"appointment_type_id": req.AppointmentType,
		"notes":               req.Notes,
	}

	var record appointmentRecord
	if err := c.do(ctx, "create_appointment", http.MethodPost, "/appointments", nil, payload, http.StatusCreated, &record); err != nil {
		return nil, reclassifyBookingError(err)
	}

	return &Appointment{
		ID:         string(record.ID),
		ProviderID: firstNonEmpty(string(record.ProviderID), req.ProviderID),
		PatientID:  firstNonEmpty(string(record.PatientID), patientID),
		StartAt:    firstNonEmpty(record.StartTime, req.StartTime),
		Type:       firstNonEmpty(string(record.TypeID), req.AppointmentType),
		Status:     record.Status,
	}, nil
}

// GetAppointmentTypes returns the bookable visit categories.
func (c *Client) GetAppointmentTypes(ctx context.Context) ([]AppointmentType, error) {
	var records []appointmentTypeRecord
	if err := c.do(ctx, "get_appointment_types", http.MethodGet, "/appointments/types", nil, nil, http.StatusOK, &records); err != nil {
		return nil, err
	}
	types := make([]AppointmentType, 0, len(records))
	for _, r := range records {
		types = append(types, AppointmentType{
			ID:          string(r.ID),
			Name:        orUnknown(r.Name),
			DurationMin: r.Duration,
		})
	}
	return types, nil
}

// GetAppointment fetches a single appointment by its upstream identifier.
func (c *Client) GetAppointment(ctx context.Context, appointmentID string) (*Appointment, error) {
	var record appointmentRecord
	path := "/appointments/" + url.PathEscape(appointmentID)
	if err := c.do(ctx, "get_appointment", http.MethodGet, path, nil, nil, http.StatusOK, &record); err != nil {
		return nil, err
	}
	return &Appointment{
		ID:         string(record.ID),
		ProviderID: string(record.ProviderID),
		PatientID:  string(record.PatientID),
		StartAt:    record.StartTime,
		Type:       string(record.TypeID),
		Status:     record.Status,
	}, nil
}

// ensurePatient finds an existing patient by email or creates one. A failed
// search falls through to creation; a bad API key fails there anyway.
func (c *Client) ensurePatient(ctx context.Context, p Patient) (string, error) {
	if strings.TrimSpace(p.Email) != "" {
		q := url.Values{}
		q.Set("email", p.Email)
		var matches []patientRecord
		err := c.do(ctx, "search_patient", http.MethodGet, "/patients/search", q, nil, http.StatusOK, &matches)
		if err == nil && len(matches) > 0 && matches[0].ID != "" {
			return string(matches[0].ID), nil
		}
		if err != nil {
			c.logger.Warn("juvonno: patient search failed, creating new patient", "error", err)
		}
	}

	first, last := splitName(p.Name)
	payload := map[string]any{
		"first_name":     first,
		"last_name":      last,
		"email":          p.Email,
		"phone":          p.Phone,
		"is_new_patient": true,
	}
	var created patientRecord
	if err := c.do(ctx, "create_patient", http.MethodPost, "/patients", nil, payload, http.StatusCreated, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &Error{Kind: KindUpstreamMalformedResponse, Op: "create_patient", Message: "upstream returned no patient id"}
	}
	return string(created.ID), nil
}

// do executes one upstream request and classifies every failure mode into a
// typed *Error. wantStatus is the single status code treated as success.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, wantStatus int, out any) error {
	if !c.creds.Complete() {
		return &Error{Kind: KindAuthenticationFailed, Op: op, Message: "missing subdomain or api key"}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUpstreamRejected, Op: op, Message: "marshal request", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Kind: KindUpstreamRejected, Op: op, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.creds.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, cancellations, and transport failures all land here.
		return &Error{Kind: KindUpstreamUnavailable, Op: op, Message: "upstream request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUpstreamUnavailable, Op: op, Message: "read response", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &Error{
			Kind:       KindAuthenticationFailed,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "invalid api key",
			Body:       truncate(respBody),
		}
	}
	if resp.StatusCode != wantStatus {
		return &Error{
			Kind:       KindUpstreamRejected,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status",
			Body:       truncate(respBody),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{
				Kind:    KindUpstreamMalformedResponse,
				Op:      op,
				Message: "unmarshal response",
				Body:    truncate(respBody),
				Err:     err,
			}
		}
	}
	return nil
}

// reclassifyBookingError turns an appointment-write rejection into a
// SlotConflict when the status or body signals the slot was taken.
func reclassifyBookingError(err error) error {
	je, ok := err.(*Error)
	if !ok || je.Kind != KindUpstreamRejected {
		return err
	}
	body := strings.ToLower(je.Body)
	conflictBody := strings.Contains(body, "not available") ||
		strings.Contains(body, "unavailable") ||
		strings.Contains(body, "conflict") ||
		strings.Contains(body, "already booked")
	if je.StatusCode == http.StatusConflict || conflictBody {
		return &Error{
			Kind:       KindSlotConflict,
			Op:         je.Op,
			StatusCode: je.StatusCode,
			Message:    "slot no longer available",
			Body:       je.Body,
			Err:        je.Err,
		}
	}
	return err
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

func parseUpstreamTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "Patient", "Unknown"
	}
	if len(parts) == 1 {
		return parts[0], "Unknown"
	}
	return parts[0], strings.Join(parts[1:], " ")
}
