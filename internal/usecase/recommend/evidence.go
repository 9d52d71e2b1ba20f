package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/lspl/gradereco/internal/domain"
)

const (
	maxTrials       = 3
	maxComplaints   = 3
	trialNotesLimit = 80
	issueLimit      = 60
	evidenceJoiner  = "; "
	noEvidence      = "-"
)

// evidence assembles R&D, trial and complaint summaries for each distinct grade.
func (s *Service) evidence(ctx context.Context, customer string, products []domain.Product) (domain.Evidence, error) {
	ev := domain.NewEvidence()
	for _, p := range products {
		if _, done := ev.RnD[p.Grade]; done {
			continue
		}

		rnd, err := s.evidenceRepo.RnDByGrade(ctx, p.Grade, 0, domain.NewestFirst)
		if err != nil {
			return domain.Evidence{}, fmt.Errorf("rnd for %s: %w", p.Grade, err)
		}
		trials, err := s.evidenceRepo.TrialsByGrade(ctx, p.Grade, 0, domain.NewestFirst)
		if err != nil {
			return domain.Evidence{}, fmt.Errorf("trials for %s: %w", p.Grade, err)
		}
		complaints, err := s.evidenceRepo.ComplaintsByGrade(ctx, p.Grade, maxComplaints, domain.NewestFirst)
		if err != nil {
			return domain.Evidence{}, fmt.Errorf("complaints for %s: %w", p.Grade, err)
		}

		ev.RnD[p.Grade] = rndSummary(rnd)
		ev.Trials[p.Grade] = trialSummary(trials, customer)
		ev.Complaints[p.Grade] = complaintSummary(complaints)
	}
	return ev, nil
}

func rndSummary(rows []domain.RnDRecord) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		constraints := domain.Deref(r.Constraints)
		if constraints == "" {
			constraints = noEvidence
		}
		parts[i] = domain.Deref(r.SpecSummary) + " | Constraints: " + constraints
	}
	return joinOrDash(parts)
}

// trialSummary prefers the requesting customer's own trials when there are any.
func trialSummary(rows []domain.TrialRecord, customer string) string {
	pref := rows
	if customer != "" {
		var same []domain.TrialRecord
		for _, r := range rows {
			if strings.TrimSpace(domain.Deref(r.CustomerName)) == customer {
				same = append(same, r)
			}
		}
		if len(same) > 0 {
			pref = same
		}
	}

	pref = pref[:min(maxTrials, len(pref))]
	parts := make([]string, len(pref))
	for i, r := range pref {
		parts[i] = fmt.Sprintf("%s:%s (%s)",
			domain.Deref(r.CustomerName), domain.Deref(r.Outcome), domain.Truncate(domain.Deref(r.Notes), trialNotesLimit))
	}
	return joinOrDash(parts)
}

func complaintSummary(rows []domain.ComplaintRecord) string {
	rows = rows[:min(maxComplaints, len(rows))]
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprintf("%s:%s(%s)",
			domain.Deref(r.CustomerName), domain.Deref(r.Severity), domain.Truncate(domain.Deref(r.Issue), issueLimit))
	}
	return joinOrDash(parts)
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return noEvidence
	}
	return strings.Join(parts, evidenceJoiner)
}
