// Package tools implements the agent-facing tool surface: a fixed catalog
// of schema-described scheduling tools, collect-all argument validation,
// and a stateless dispatcher that drives the Juvonno booking pipeline and
// wraps every outcome in one uniform result envelope.
package tools

// Tool names. These are the wire contract for calling agents; renaming one
// is a breaking change.
const (
	ToolGetLocations        = "get_locations_by_postal_code"
	ToolGetProviders        = "get_providers_by_location"
	ToolGetSlots            = "get_available_slots"
	ToolBookAppointment     = "book_appointment"
	ToolGetAppointmentTypes = "get_appointment_types"
)

// ParamKind classifies how a parameter value is validated.
type ParamKind string

const (
	KindString     ParamKind = "string"
	KindIdentifier ParamKind = "identifier"
	KindDatetime   ParamKind = "datetime"
	KindEnum       ParamKind = "enum"
)

// Param describes one tool parameter.
type Param struct {
	Name          string
	Kind          ParamKind
	Required      bool
	Description   string
	AllowedValues []string
}

// ToolDefinition is one row of the catalog. Definitions are immutable for
// the process lifetime; parameter order is preserved for discovery.
type ToolDefinition struct {
	Name        string
	Description string
	Params      []Param
}

// RequiredParams returns the names of all required parameters, in order.
func (d ToolDefinition) RequiredParams() []string {
	out := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

var credentialParams = []Param{
	{Name: "subdomain", Kind: KindIdentifier, Required: true,
		Description: "Juvonno subdomain (e.g. 'medrehabgroup')"},
	{Name: "api_key", Kind: KindIdentifier, Required: true,
		Description: "Juvonno API key for authentication"},
}

var catalog = []ToolDefinition{
	{
		Name:        ToolGetLocations,
		Description: "Find Juvonno clinic locations near a postal code",
		Params: append([]Param{
			{Name: "postal_code", Kind: KindString, Required: true,
				Description: "Postal code to search near (e.g. 'L1V 1B5')"},
		}, credentialParams...),
	},
	{
		Name:        ToolGetProviders,
		Description: "Get healthcare providers at a specific clinic location",
		Params: append([]Param{
			{Name: "location_id", Kind: KindIdentifier, Required: true,
				Description: "ID of the clinic location"},
			{Name: "service_type", Kind: KindString, Required: false,
				Description: "Type of service (massage, chiropractic, physiotherapy, etc.)"},
		}, credentialParams...),
	},
	{
		Name:        ToolGetSlots,
		Description: "Get available appointment slots for a provider",
		Params: append([]Param{
			{Name: "provider_id", Kind: KindIdentifier, Required: true,
				Description: "ID of the healthcare provider"},
			{Name: "start_date", Kind: KindDatetime, Required: false,
				Description: "Start date for the availability search (YYYY-MM-DD)"},
			{Name: "end_date", Kind: KindDatetime, Required: false,
				Description: "End date for the availability search (YYYY-MM-DD)"},
		}, credentialParams...),
	},
	{
		Name:        ToolBookAppointment,
		Description: "Book a new patient appointment",
		Params: append([]Param{
			{Name: "provider_id", Kind: KindIdentifier, Required: true,
				Description: "ID of the healthcare provider"},
			{Name: "appointment_time", Kind: KindDatetime, Required: true,
				Description: "Appointment date and time (ISO format: YYYY-MM-DDTHH:MM:SS)"},
			{Name: "appointment_type", Kind: KindString, Required: true,
				Description: "Type of appointment (e.g. 'New Patient')"},
			{Name: "patient_name", Kind: KindString, Required: true,
				Description: "Full name of the patient"},
			{Name: "patient_email", Kind: KindString, Required: true,
				Description: "Email address of the patient"},
			{Name: "patient_phone", Kind: KindString, Required: true,
				Description: "Phone number of the patient"},
		}, credentialParams...),
	},
	{
		Name:        ToolGetAppointmentTypes,
		Description: "Get the appointment types offered by the clinic",
		Params:      credentialParams,
	},
}

// Catalog returns the full tool table for discovery. The underlying
// definitions are shared and must not be mutated by callers.
func Catalog() []ToolDefinition {
	out := make([]ToolDefinition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a tool definition by name.
func Lookup(name string) (ToolDefinition, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return ToolDefinition{}, false
}

// ToolSchema is the discovery representation of one tool, shaped like the
// JSON-schema fragment tool-calling platforms expect.
type ToolSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  ParamSchema `json:"parameters"`
}

// ParamSchema is the object schema for a tool's arguments.
type ParamSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

// PropertySchema describes a single argument.
type PropertySchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Schema renders the definition into its discovery form. All parameter
// kinds serialize as JSON strings; datetime carries a format hint.
func (d ToolDefinition) Schema() ToolSchema {
	props := make(map[string]PropertySchema, len(d.Params))
	for _, p := range d.Params {
		prop := PropertySchema{Type: "string", Description: p.Description}
		if p.Kind == KindDatetime {
			prop.Format = "date-time"
		}
		if p.Kind == KindEnum {
			prop.Enum = append([]string(nil), p.AllowedValues...)
		}
		props[p.Name] = prop
	}
	return ToolSchema{
		Name:        d.Name,
		Description: d.Description,
		Parameters: ParamSchema{
			Type:       "object",
			Properties: props,
			Required:   d.RequiredParams(),
		},
	}
}
