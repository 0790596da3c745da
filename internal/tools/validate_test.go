package tools

import (
	"reflect"
	"testing"
)

func TestValidateCollectsAllViolations(t *testing.T) {
	def, _ := Lookup(ToolBookAppointment)
	violations := Validate(def, map[string]string{
		"provider_id": "3",
		"subdomain":   "medrehabgroup",
		"api_key":     "key",
	})
	want := []string{"appointment_time", "appointment_type", "patient_name", "patient_email", "patient_phone"}
	if got := ViolationParams(violations); !reflect.DeepEqual(got, want) {
		t.Fatalf("violations = %v, want %v", got, want)
	}
}

func TestValidateDatetimeKind(t *testing.T) {
	def, _ := Lookup(ToolGetSlots)
	args := map[string]string{
		"provider_id": "3",
		"subdomain":   "medrehabgroup",
		"api_key":     "key",
		"start_date":  "not-a-date",
	}
	violations := Validate(def, args)
	if len(violations) != 1 || violations[0].Param != "start_date" {
		t.Fatalf("violations = %+v", violations)
	}

	for _, ok := range []string{"2026-09-01", "2026-09-01T14:00:00", "2026-09-01T14:00:00Z"} {
		args["start_date"] = ok
		if v := Validate(def, args); len(v) != 0 {
			t.Fatalf("value %q rejected: %+v", ok, v)
		}
	}
}

func TestValidateIgnoresUnknownArgs(t *testing.T) {
	def, _ := Lookup(ToolGetAppointmentTypes)
	violations := Validate(def, map[string]string{
		"subdomain":    "medrehabgroup",
		"api_key":      "key",
		"future_param": "whatever",
	})
	if len(violations) != 0 {
		t.Fatalf("unknown args rejected: %+v", violations)
	}
}

func TestValidateBlankRequired(t *testing.T) {
	def, _ := Lookup(ToolGetLocations)
	violations := Validate(def, map[string]string{
		"postal_code": "   ",
		"subdomain":   "medrehabgroup",
		"api_key":     "key",
	})
	if got := ViolationParams(violations); !reflect.DeepEqual(got, []string{"postal_code"}) {
		t.Fatalf("violations = %v", got)
	}
}

func TestValidateEnumKind(t *testing.T) {
	def := ToolDefinition{
		Name: "test_tool",
		Params: []Param{
			{Name: "channel", Kind: KindEnum, Required: true, AllowedValues: []string{"voice", "chat"}},
		},
	}
	if v := Validate(def, map[string]string{"channel": "VOICE"}); len(v) != 0 {
		t.Fatalf("case-insensitive enum match rejected: %+v", v)
	}
	if v := Validate(def, map[string]string{"channel": "fax"}); len(v) != 1 {
		t.Fatalf("invalid enum accepted: %+v", v)
	}
}

func TestNormalizeArgs(t *testing.T) {
	got := NormalizeArgs(map[string]any{
		"postal_code": "L1V 1B5",
		"location_id": float64(4),
		"flag":        true,
		"absent":      nil,
		"nested":      map[string]any{"x": 1},
	})
	want := map[string]string{
		"postal_code": "L1V 1B5",
		"location_id": "4",
		"flag":        "true",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeArgs = %v, want %v", got, want)
	}
}
