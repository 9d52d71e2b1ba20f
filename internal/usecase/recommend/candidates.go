package recommend

import (
	"context"
	"fmt"

	"github.com/lspl/gradereco/internal/domain"
)

// candidates returns products for the exact pair. When none match, it falls back
// to division-only followed by category-only results, keeping the first product
// seen for each grade.
func (s *Service) candidates(ctx context.Context, division, category *string) ([]domain.Product, error) {
	exact, err := s.catalog.Candidates(ctx, division, category)
	if err != nil {
		return nil, fmt.Errorf("exact candidates: %w", err)
	}
	if len(exact) > 0 {
		return exact, nil
	}

	byDivision, err := s.catalog.Candidates(ctx, division, nil)
	if err != nil {
		return nil, fmt.Errorf("division candidates: %w", err)
	}
	byCategory, err := s.catalog.Candidates(ctx, nil, category)
	if err != nil {
		return nil, fmt.Errorf("category candidates: %w", err)
	}

	return dedupeByGrade(append(byDivision, byCategory...)), nil
}

func dedupeByGrade(products []domain.Product) []domain.Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.Grade]; ok {
			continue
		}
		seen[p.Grade] = struct{}{}
		out = append(out, p)
	}
	return out
}
