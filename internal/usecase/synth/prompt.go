package synth

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/lspl/gradereco/internal/domain"
)

const (
	// DefaultMaxCandidates is how many candidate lines reach the prompt.
	DefaultMaxCandidates = 10

	notesLimit     = 80
	emptySignal    = "-"
	nearestJoiner  = "\n---\n"
	evidenceIndent = "  "
)

// Input is everything the model sees for one recommendation.
type Input struct {
	Summary    string
	Candidates []domain.Product
	Nearest    []string
	Evidence   domain.Evidence
}

// BuildPrompt renders the system policy and the filled user message.
// Only the first maxCandidates candidates are listed; evidence maps cover all of them.
func BuildPrompt(in Input, maxCandidates int) domain.Prompt {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	grades := gradeOrder(in.Candidates)

	r := strings.NewReplacer(
		"{input_summary}", in.Summary,
		"{candidates_summary}", candidatesSummary(in.Candidates, in.Evidence, maxCandidates),
		"{nearest_tickets}", nearestText(in.Nearest),
		"{rnd_checks}", orderedJSON(grades, in.Evidence.RnD),
		"{trial_signals}", orderedJSON(grades, in.Evidence.Trials),
		"{complaint_signals}", orderedJSON(grades, in.Evidence.Complaints),
	)

	return domain.Prompt{System: SystemPrompt, User: r.Replace(userTemplate)}
}

// CandidateLine renders one product with its trial and complaint signals.
func CandidateLine(p domain.Product, ev domain.Evidence) string {
	var b strings.Builder
	b.WriteString("Grade=" + p.Grade)
	b.WriteString("; Proc=" + orNone(p.CompatibleProcess))
	b.WriteString("; Metal=" + orNone(p.Metal))
	b.WriteString("; T=" + formatTemp(p.TempMinC) + "-" + formatTemp(p.TempMaxC) + "C")
	b.WriteString("; Notes=" + domain.Truncate(p.Notes, notesLimit))
	b.WriteString(" | Trials: " + signal(ev.Trials, p.Grade))
	b.WriteString(" | Complaints: " + signal(ev.Complaints, p.Grade))
	return b.String()
}

func candidatesSummary(products []domain.Product, ev domain.Evidence, limit int) string {
	if len(products) == 0 {
		return emptySignal
	}
	products = products[:min(limit, len(products))]
	lines := make([]string, len(products))
	for i, p := range products {
		lines[i] = CandidateLine(p, ev)
	}
	return strings.Join(lines, "\n")
}

func nearestText(nearest []string) string {
	if len(nearest) == 0 {
		return emptySignal
	}
	return strings.Join(nearest, nearestJoiner)
}

func gradeOrder(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	grades := make([]string, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.Grade]; ok {
			continue
		}
		seen[p.Grade] = struct{}{}
		grades = append(grades, p.Grade)
	}
	return grades
}

// orderedJSON renders m as a 2-space indented JSON object with keys in candidate order.
// encoding/json sorts map keys, which would detach the evidence from the candidate list.
func orderedJSON(keys []string, m map[string]string) string {
	var b strings.Builder
	b.WriteString("{")
	n := 0
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		if n > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n" + evidenceIndent + jsonString(k) + ": " + jsonString(v))
		n++
	}
	if n > 0 {
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func signal(m map[string]string, grade string) string {
	if v, ok := m[grade]; ok {
		return v
	}
	return emptySignal
}

func orNone(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

// formatTemp renders a temperature with at least one decimal place, e.g. 180.0.
func formatTemp(v *float64) string {
	if v == nil {
		return "None"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
