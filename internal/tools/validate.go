package tools

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Violation names one argument that failed validation.
type Violation struct {
	Param   string `json:"param"`
	Message string `json:"message"`
}

// Validate checks an argument map against a tool definition and returns
// every violation in one pass, never just the first, so a calling agent can
// ask one precise follow-up question instead of re-prompting blindly.
// Unknown extra arguments are ignored for forward compatibility.
func Validate(def ToolDefinition, args map[string]string) []Violation {
	var violations []Violation
	for _, p := range def.Params {
		value, present := args[p.Name]
		if !present || strings.TrimSpace(value) == "" {
			if p.Required {
				violations = append(violations, Violation{
					Param:   p.Name,
					Message: "required parameter is missing",
				})
			}
			continue
		}
		if msg := checkKind(p, value); msg != "" {
			violations = append(violations, Violation{Param: p.Name, Message: msg})
		}
	}
	return violations
}

func checkKind(p Param, value string) string {
	switch p.Kind {
	case KindIdentifier:
		if strings.TrimSpace(value) == "" {
			return "identifier must be non-empty"
		}
	case KindDatetime:
		if _, ok := ParseDatetime(value); !ok {
			return "must be an ISO-8601 date or timestamp"
		}
	case KindEnum:
		for _, allowed := range p.AllowedValues {
			if strings.EqualFold(value, allowed) {
				return ""
			}
		}
		return fmt.Sprintf("must be one of: %s", strings.Join(p.AllowedValues, ", "))
	}
	return ""
}

// ParseDatetime accepts the ISO-8601 shapes agents actually send: a bare
// date, a local timestamp, or a full RFC3339 timestamp.
func ParseDatetime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ViolationParams lists the offending parameter names, in violation order.
func ViolationParams(violations []Violation) []string {
	params := make([]string, 0, len(violations))
	for _, v := range violations {
		params = append(params, v.Param)
	}
	return params
}

// NormalizeArgs coerces a decoded JSON argument object into the string map
// the validator works on. Scalars are stringified; nested values, which no
// tool in the catalog declares, are dropped.
func NormalizeArgs(raw map[string]any) map[string]string {
	args := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			args[key] = v
		case float64:
			args[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			args[key] = strconv.FormatBool(v)
		case nil:
			// Treat explicit nulls as absent.
		default:
		}
	}
	return args
}
