// Package juvonno is the boundary client for the Juvonno clinic-management
// API. It translates logical scheduling operations (locations, providers,
// availability, booking) into REST calls against
// https://{subdomain}.juvonno.com/api and normalizes loose upstream JSON
// into typed records. It never retries: a repeated booking write could
// create a duplicate appointment, and Juvonno exposes no idempotency key.
package juvonno

import (
	"encoding/json"
	"strings"
	"time"
)

// UnknownField marks upstream record fields that were missing or blank.
// Downstream components must never see a missing-key error.
const UnknownField = "unknown"

// Credentials identify one Juvonno tenant. They travel per tool call;
// nothing is cached between calls.
type Credentials struct {
	Subdomain string
	APIKey    string
}

// Sanitized normalizes the subdomain the way operators tend to paste it:
// with a protocol prefix, a trailing slash, or the full .juvonno.com host.
func (c Credentials) Sanitized() Credentials {
	sub := strings.TrimSpace(c.Subdomain)
	if i := strings.Index(sub, "://"); i >= 0 {
		sub = sub[i+3:]
	}
	sub = strings.TrimRight(sub, "/")
	sub = strings.TrimSuffix(sub, ".juvonno.com")
	return Credentials{Subdomain: sub, APIKey: strings.TrimSpace(c.APIKey)}
}

// Complete reports whether both credential parts are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Subdomain) != "" && strings.TrimSpace(c.APIKey) != ""
}

// Location is a clinic branch.
type Location struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Provider is a practitioner attached to a branch.
type Provider struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	LocationID string   `json:"location_id"`
	Services   []string `json:"services,omitempty"`
}

// Slot is a candidate appointment window reported as open at lookup time.
// It is not a reservation; it can be taken by the time a booking lands.
type Slot struct {
	ProviderID string    `json:"provider_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Available  bool      `json:"available"`
}

// AppointmentType is a bookable visit category.
type AppointmentType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DurationMin int    `json:"duration_min,omitempty"`
}

// Patient is the contact info supplied by the caller for a booking. It is
// held in memory only for the duration of the call; Juvonno owns the record.
type Patient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// BookingRequest is the input for CreateAppointment.
type BookingRequest struct {
	ProviderID      string  `json:"provider_id"`
	StartTime       string  `json:"start_time"`
	AppointmentType string  `json:"appointment_type"`
	Patient         Patient `json:"patient"`
	Notes           string  `json:"notes,omitempty"`
}

// Appointment is a booking confirmed by Juvonno.
type Appointment struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id,omitempty"`
	PatientID  string `json:"patient_id,omitempty"`
	StartAt    string `json:"start_at,omitempty"`
	Type       string `json:"type,omitempty"`
	Status     string `json:"status,omitempty"`
}

// flexID tolerates Juvonno returning numeric or string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Narrow wire payloads. Juvonno's responses are loosely typed; every field
// is optional here and defaulted at the adapter boundary.
type branchRecord struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Province string `json:"province"`
	Postal   string `json:"postal"`
	Phone    string `json:"phone"`
}

type providerRecord struct {
	ID         flexID   `json:"id"`
	Name       string   `json:"name"`
	FullName   string   `json:"full_name"`
	LocationID flexID   `json:"location_id"`
	BranchID   flexID   `json:"branch_id"`
	Services   []string `json:"services"`
}

type slotRecord struct {
	ProviderID flexID `json:"provider_id"`
	StartTime  string `json:"start_time"`
	Start      string `json:"start"`
	EndTime    string `json:"end_time"`
	End        string `json:"end"`
	Available  *bool  `json:"available"`
}

type appointmentTypeRecord struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

type patientRecord struct {
	ID flexID `json:"id"`
}

type appointmentRecord struct {
	ID         flexID `json:"id"`
	ProviderID flexID `json:"provider_id"`
	PatientID  flexID `json:"patient_id"`
	StartTime  string `json:"start_time"`
	TypeID     flexID `json:"appointment_type_id"`
	Status     string `json:"status"`
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownField
	}
	return s
}
