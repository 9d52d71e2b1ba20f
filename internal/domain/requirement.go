package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const maxParamsSummary = 800

// Requirement is an incoming customer request for a grade proposal.
// Division and Category are required; they are pointers so that a missing key
// can be told apart from an empty value.
type Requirement struct {
	Timestamp          *string        `json:"timestamp,omitempty"`
	Email              *string        `json:"email,omitempty"`
	RequiredBy         *string        `json:"required_by,omitempty"`
	RequirementType    *string        `json:"requirement_type,omitempty"`
	Division           *string        `json:"division"`
	Category           *string        `json:"category"`
	RequirementDetails *string        `json:"requirement_details,omitempty"`
	Priority           *string        `json:"priority,omitempty"`
	CustomerName       *string        `json:"customer_name,omitempty"`
	Remark             *string        `json:"remark,omitempty"`
	TicketType         *string        `json:"ticket_type,omitempty"`
	TargetDate         *string        `json:"target_date,omitempty"`
	Params             map[string]any `json:"params,omitempty"`

	// paramsJSON keeps the params object as received so that summaries
	// preserve the client's key order.
	paramsJSON json.RawMessage
}

// UnmarshalJSON decodes a requirement and remembers the raw params object.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	type fields Requirement
	aux := struct {
		*fields
		Params json.RawMessage `json:"params"`
	}{fields: (*fields)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Params, r.paramsJSON = nil, nil
	if len(aux.Params) == 0 || string(aux.Params) == "null" {
		return nil
	}
	if err := json.Unmarshal(aux.Params, &r.Params); err != nil {
		return err
	}
	r.paramsJSON = aux.Params
	return nil
}

// Validate checks required fields. Errors wrap ErrValidation.
func (r *Requirement) Validate() error {
	var missing []string
	if r.Division == nil {
		missing = append(missing, "division")
	}
	if r.Category == nil {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required field(s): %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Customer returns the trimmed customer name or "".
func (r *Requirement) Customer() string {
	return strings.TrimSpace(Deref(r.CustomerName))
}

// Summary renders the requirement as the text used both for ticket retrieval and
// as the input section of the prompt. Null fields are omitted; empty strings are
// kept as "Key=". Params are rendered the way Python's json.dumps does.
func (r *Requirement) Summary() string {
	lines := make([]string, 0, 7)
	add := func(key string, v *string) {
		if v == nil {
			return
		}
		lines = append(lines, key+"="+*v)
	}

	add("Division", r.Division)
	add("Category", r.Category)
	add("RequirementType", r.RequirementType)
	add("Priority", r.Priority)
	add("Customer", r.CustomerName)
	add("Details", r.RequirementDetails)

	lines = append(lines, "Params="+Truncate(r.paramsText(), maxParamsSummary))
	return strings.Join(lines, "\n")
}

func (r *Requirement) paramsText() string {
	raw := r.paramsJSON
	if raw == nil {
		if len(r.Params) == 0 {
			return "{}"
		}
		var err error
		if raw, err = json.Marshal(r.Params); err != nil {
			return "{}"
		}
	}
	text, err := pythonJSON(raw)
	if err != nil {
		return "{}"
	}
	return text
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
