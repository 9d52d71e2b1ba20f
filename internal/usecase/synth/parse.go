package synth

import (
	"encoding/json"
	"strings"

	"github.com/lspl/gradereco/internal/domain"
)

const (
	fallbackGrade  = "TBD"
	fallbackReason = 500
)

// ParseDecision extracts {grade, reason, notes} from a model reply.
// Markdown fences are stripped; when the whole text is not JSON the first
// {...} span is tried. A reply with no JSON object yields the TBD placeholder
// with the raw text as reason and Degraded set.
func ParseDecision(raw string) domain.Decision {
	obj, ok := extractObject(raw)
	if !ok {
		return domain.Decision{
			Grade:    fallbackGrade,
			Reason:   domain.Truncate(raw, fallbackReason),
			Degraded: true,
		}
	}
	return domain.Decision{
		Grade:  field(obj, "grade"),
		Reason: field(obj, "reason"),
		Notes:  field(obj, "notes"),
	}
}

func extractObject(raw string) (map[string]json.RawMessage, bool) {
	text := stripFences(strings.TrimSpace(raw))

	if obj, ok := decodeObject(text); ok {
		return obj, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return decodeObject(text[start : end+1])
}

func decodeObject(s string) (map[string]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// stripFences removes a leading ```lang line and a trailing ``` line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// field returns a string value as is, null or missing as "", and anything else
// as its compact JSON text.
func field(obj map[string]json.RawMessage, key string) string {
	v, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(v))
	var anyVal any
	if err := json.Unmarshal(v, &anyVal); err != nil {
		return trimmed
	}
	out, err := json.Marshal(anyVal)
	if err != nil {
		return trimmed
	}
	return string(out)
}
