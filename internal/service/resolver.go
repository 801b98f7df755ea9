package service

import (
	"context"
	"fmt"
	"strings"

	"recipe-api/internal/domain"
	"recipe-api/internal/repo"
)

// resolutions collects resolver outcomes until the transaction commits.
type resolutions []resolution

type resolution struct{ kind, outcome string }

func (rs resolutions) record() {
	for _, r := range rs {
		taxonomyResolved.WithLabelValues(r.kind, r.outcome).Inc()
	}
}

// resolveAndAttach links every described record to rec, creating the owner's
// record on first use. With replace set, the recipe's current links of this
// kind are dropped first. Callers pass a transaction-bound repository and
// record the outcomes once it commits.
func resolveAndAttach[T domain.Taxon](
	ctx context.Context,
	r *repo.TaxonomyRepo[T],
	rec *domain.Recipe,
	items []domain.Descriptor,
	owner uint,
	replace bool,
	out *resolutions,
) error {
	var zero T
	field := strings.ToLower(zero.RecipeField())

	names := make([]string, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		switch {
		case name == "":
			return domain.NewValidationError(field, "name may not be blank")
		case len(name) > 255:
			return domain.NewValidationError(field, "name has more than 255 characters")
		}
		names = append(names, name)
	}

	if replace {
		if err := r.DetachAll(ctx, rec); err != nil {
			return fmt.Errorf("detach %s: %w", field, err)
		}
	}
	for _, name := range names {
		item, created, err := r.GetOrCreate(ctx, owner, name)
		if err != nil {
			return fmt.Errorf("resolve %s %q: %w", zero.Kind(), name, err)
		}
		outcome := "existing"
		if created {
			outcome = "created"
		}
		*out = append(*out, resolution{kind: zero.Kind(), outcome: outcome})

		if err := r.Attach(ctx, rec, item); err != nil {
			return fmt.Errorf("attach %s %q: %w", zero.Kind(), name, err)
		}
	}
	return nil
}
