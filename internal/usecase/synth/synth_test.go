package synth

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

type mockGenerator struct {
	generateFn func(ctx context.Context, p domain.Prompt) (domain.Completion, error)
	last       domain.Prompt
}

func (m *mockGenerator) Generate(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	m.last = p
	return m.generateFn(ctx, p)
}

var _ domain.Generator = (*mockGenerator)(nil)

func reply(text string) *mockGenerator {
	return &mockGenerator{generateFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		return domain.Completion{Text: text, PromptTokens: 100, CompletionTokens: 20}, nil
	}}
}

func f64(v float64) *float64 { return &v }

func dieLube() domain.Product {
	return domain.Product{
		Grade:             "DieLube-3000",
		Division:          domain.Str("Die Casting"),
		Category:          domain.Str("Lubricant"),
		CompatibleProcess: domain.Str("HPDC"),
		Metal:             domain.Str("Al"),
		TempMinC:          f64(180),
		TempMaxC:          f64(320),
		Notes:             "Low residue",
	}
}

func TestCandidateLine(t *testing.T) {
	ev := domain.NewEvidence()
	ev.Trials["DieLube-3000"] = "Alpha Castings:success (Reduced soldering)"

	got := CandidateLine(dieLube(), ev)
	want := "Grade=DieLube-3000; Proc=HPDC; Metal=Al; T=180.0-320.0C; Notes=Low residue" +
		" | Trials: Alpha Castings:success (Reduced soldering) | Complaints: -"
	if got != want {
		t.Errorf("CandidateLine:\n got %q\nwant %q", got, want)
	}
}

func TestCandidateLine_MissingFields(t *testing.T) {
	p := domain.Product{Grade: "G", Notes: strings.Repeat("n", 100), TempMaxC: f64(62.5)}

	got := CandidateLine(p, domain.NewEvidence())
	want := "Grade=G; Proc=None; Metal=None; T=None-62.5C; Notes=" + strings.Repeat("n", 80) +
		" | Trials: - | Complaints: -"
	if got != want {
		t.Errorf("CandidateLine:\n got %q\nwant %q", got, want)
	}
}

func TestBuildPrompt(t *testing.T) {
	ev := domain.NewEvidence()
	ev.RnD["DieLube-3000"] = "Water-based | Constraints: -"
	ev.Trials["DieLube-3000"] = "-"
	ev.Complaints["DieLube-3000"] = "-"

	p := BuildPrompt(Input{
		Summary:    "Division=Die Casting\nCategory=Lubricant\nParams={}",
		Candidates: []domain.Product{dieLube()},
		Nearest:    []string{"Ticket T-1\n", "Ticket T-2\n"},
		Evidence:   ev,
	}, 0)

	if p.System != SystemPrompt {
		t.Error("expected the fixed system policy")
	}
	for _, want := range []string{
		"INPUT PARAMETERS (summarized):\nDivision=Die Casting\nCategory=Lubricant\nParams={}\n",
		"CANDIDATE GRADES (with signals):\nGrade=DieLube-3000; ",
		"PAST SIMILAR TICKETS (top-k):\nTicket T-1\n\n---\nTicket T-2\n",
		"R&D CHECKS:\n{\n  \"DieLube-3000\": \"Water-based | Constraints: -\"\n}\n",
		`Return JSON strictly as: {"grade": "...", "reason": "...", "notes": "..."}.`,
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q\n---\n%s", want, p.User)
		}
	}
}

func TestBuildPrompt_Empty(t *testing.T) {
	p := BuildPrompt(Input{Summary: "Division=X", Evidence: domain.NewEvidence()}, 10)

	for _, want := range []string{
		"CANDIDATE GRADES (with signals):\n-\n",
		"PAST SIMILAR TICKETS (top-k):\n-\n",
		"R&D CHECKS:\n{}\n",
		"TRIAL SIGNALS:\n{}\n",
		"COMPLAINT SIGNALS (negative evidence):\n{}\n",
	} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_CapsCandidateLines(t *testing.T) {
	var products []domain.Product
	ev := domain.NewEvidence()
	for _, g := range []string{"A", "B", "C"} {
		products = append(products, domain.Product{Grade: g})
		ev.RnD[g] = "-"
	}

	p := BuildPrompt(Input{Candidates: products, Evidence: ev}, 2)

	if strings.Contains(p.User, "Grade=C;") {
		t.Error("expected third candidate line to be dropped")
	}
	if !strings.Contains(p.User, `"C": "-"`) {
		t.Error("evidence maps must still cover every candidate")
	}
}

func TestOrderedJSON(t *testing.T) {
	got := orderedJSON([]string{"b", "a", "missing"}, map[string]string{"a": `x "q" <y>`, "b": "-"})
	want := "{\n  \"b\": \"-\",\n  \"a\": \"x \\\"q\\\" <y>\"\n}"
	if got != want {
		t.Errorf("orderedJSON:\n got %q\nwant %q", got, want)
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.Decision
	}{
		{
			name: "plain object",
			raw:  `{"grade":"DieLube-3000","reason":"trial success","notes":"check dilution"}`,
			want: domain.Decision{Grade: "DieLube-3000", Reason: "trial success", Notes: "check dilution"},
		},
		{
			name: "fenced",
			raw:  "```json\n{\"grade\":\"G\",\"reason\":\"r\",\"notes\":\"n\"}\n```",
			want: domain.Decision{Grade: "G", Reason: "r", Notes: "n"},
		},
		{
			name: "embedded in prose",
			raw:  "Here is my answer: {\"grade\":\"G\",\"reason\":\"r\"} Thanks.",
			want: domain.Decision{Grade: "G", Reason: "r"},
		},
		{
			name: "non-string values",
			raw:  `{"grade":"G","reason":["a","b"],"notes":{"k":1},"extra":true}`,
			want: domain.Decision{Grade: "G", Reason: `["a","b"]`, Notes: `{"k":1}`},
		},
		{
			name: "null values",
			raw:  `{"grade":null,"reason":"r","notes":null}`,
			want: domain.Decision{Reason: "r"},
		},
		{
			name: "numeric grade",
			raw:  `{"grade":3000}`,
			want: domain.Decision{Grade: "3000"},
		},
		{
			name: "prose only",
			raw:  "I recommend DieLube-3000.",
			want: domain.Decision{Grade: "TBD", Reason: "I recommend DieLube-3000.", Degraded: true},
		},
		{
			name: "array is not an object",
			raw:  `["G"]`,
			want: domain.Decision{Grade: "TBD", Reason: `["G"]`, Degraded: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDecision(tt.raw); got != tt.want {
				t.Errorf("ParseDecision(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDecision_FallbackTruncatesByRunes(t *testing.T) {
	raw := strings.Repeat("°", 700)
	got := ParseDecision(raw)
	if !got.Degraded || got.Reason != strings.Repeat("°", 500) {
		t.Errorf("expected 500-rune reason, got %d runes", len([]rune(got.Reason)))
	}
}

func TestDecide(t *testing.T) {
	gen := reply(`{"grade":"DieLube-3000","reason":"fits","notes":""}`)
	svc := New(gen, Config{Provider: "test-decide", Model: "m"}, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	got, err := svc.Decide(ctx, Input{Summary: "Division=X", Evidence: domain.NewEvidence()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Grade != "DieLube-3000" || got.Degraded {
		t.Errorf("unexpected decision: %+v", got)
	}
	if gen.last.System != SystemPrompt {
		t.Error("expected system prompt to be sent")
	}
	if usage.PromptTokens != 100 || usage.CompletionTokens != 20 {
		t.Errorf("unexpected usage: %+v", usage)
	}
	if v := testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("test-decide", "m", "ok")); v != 1 {
		t.Errorf("expected 1 ok request, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.LLMTokensTotal.WithLabelValues("test-decide", "m", "completion")); v != 20 {
		t.Errorf("expected 20 completion tokens, got %f", v)
	}
}

func TestDecide_Degraded(t *testing.T) {
	svc := New(reply("no json here"), Config{Provider: "test", Model: "m"}, zap.NewNop())

	got, err := svc.Decide(context.Background(), Input{Evidence: domain.NewEvidence()})
	if err != nil {
		t.Fatalf("parse failure must not be an error, got %v", err)
	}
	if got.Grade != "TBD" || got.Reason != "no json here" || !got.Degraded {
		t.Errorf("unexpected decision: %+v", got)
	}
}

func TestDecide_ProviderError(t *testing.T) {
	gen := &mockGenerator{generateFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		return domain.Completion{}, errors.New("connection refused")
	}}
	svc := New(gen, Config{Provider: "test-err", Model: "m"}, zap.NewNop())

	_, err := svc.Decide(context.Background(), Input{Evidence: domain.NewEvidence()})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
	if v := testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("test-err", "m", "error")); v != 1 {
		t.Errorf("expected 1 error request, got %f", v)
	}
}

func TestDecide_Timeout(t *testing.T) {
	gen := &mockGenerator{generateFn: func(ctx context.Context, _ domain.Prompt) (domain.Completion, error) {
		<-ctx.Done()
		return domain.Completion{}, ctx.Err()
	}}
	svc := New(gen, Config{Provider: "test", Model: "m", Timeout: 10 * time.Millisecond}, zap.NewNop())

	_, err := svc.Decide(context.Background(), Input{Evidence: domain.NewEvidence()})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in chain, got %v", err)
	}
}
