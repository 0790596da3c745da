package tools

import (
	"reflect"
	"testing"
)

func TestCatalogStableAcrossCalls(t *testing.T) {
	first := Catalog()
	second := Catalog()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("catalog changed between calls")
	}
	if len(first) != 5 {
		t.Fatalf("catalog has %d tools, want 5", len(first))
	}
}

func TestCatalogContract(t *testing.T) {
	want := map[string][]string{
		ToolGetLocations:        {"postal_code", "subdomain", "api_key"},
		ToolGetProviders:        {"location_id", "subdomain", "api_key"},
		ToolGetSlots:            {"provider_id", "subdomain", "api_key"},
		ToolBookAppointment:     {"provider_id", "appointment_time", "appointment_type", "patient_name", "patient_email", "patient_phone", "subdomain", "api_key"},
		ToolGetAppointmentTypes: {"subdomain", "api_key"},
	}
	for name, required := range want {
		def, ok := Lookup(name)
		if !ok {
			t.Fatalf("tool %s missing from catalog", name)
		}
		if got := def.RequiredParams(); !reflect.DeepEqual(got, required) {
			t.Errorf("%s required params = %v, want %v", name, got, required)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("no_such_tool"); ok {
		t.Fatal("Lookup accepted unknown tool")
	}
}

func TestSchemaShape(t *testing.T) {
	def, _ := Lookup(ToolGetSlots)
	schema := def.Schema()
	if schema.Parameters.Type != "object" {
		t.Fatalf("schema type = %q, want object", schema.Parameters.Type)
	}
	if len(schema.Parameters.Properties) != len(def.Params) {
		t.Fatalf("schema has %d properties, want %d", len(schema.Parameters.Properties), len(def.Params))
	}
	prop, ok := schema.Parameters.Properties["start_date"]
	if !ok {
		t.Fatal("start_date missing from schema properties")
	}
	if prop.Type != "string" || prop.Format != "date-time" {
		t.Fatalf("start_date property = %+v", prop)
	}
	if got := schema.Parameters.Required; !reflect.DeepEqual(got, []string{"provider_id", "subdomain", "api_key"}) {
		t.Fatalf("schema required = %v", got)
	}
}
