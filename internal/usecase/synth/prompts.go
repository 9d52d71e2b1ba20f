package synth

// SystemPrompt is the fixed decision policy sent with every recommendation.
const SystemPrompt = `You are an expert Technical Sales Director at LSPL. Use the provided contextual data to recommend an LSPL product grade.
ALWAYS return structured JSON with keys: grade, reason, notes.

Decision policy:
1) Prefer grades that match Division + Category.
2) Exclude grades with relevant complaints under similar conditions.
3) Prioritize grades that passed trials under similar conditions (same customer wins over others).
4) Validate against R&D constraints (temperature, water, dilution, etc.).
5) If multiple grades tie, choose the one with best past success rate; otherwise present the strongest single grade.

Be concise and specific. Reference concrete parameters from the input.
`

// userTemplate placeholders are filled in a single pass, so evidence text that
// happens to contain a placeholder is left alone.
const userTemplate = `INPUT PARAMETERS (summarized):
{input_summary}

CANDIDATE GRADES (with signals):
{candidates_summary}

PAST SIMILAR TICKETS (top-k):
{nearest_tickets}

R&D CHECKS:
{rnd_checks}

TRIAL SIGNALS:
{trial_signals}

COMPLAINT SIGNALS (negative evidence):
{complaint_signals}

Task: Select the best single LSPL grade and explain why.
Return JSON strictly as: {"grade": "...", "reason": "...", "notes": "..."}.
`
