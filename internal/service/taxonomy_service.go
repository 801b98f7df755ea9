package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"recipe-api/internal/domain"
	"recipe-api/internal/repo"
)

// TaxonomyService serves the owner-scoped list, rename and delete operations
// of one taxonomy kind.
type TaxonomyService[T domain.Taxon] struct {
	store *repo.Store
	pick  func(*repo.Store) *repo.TaxonomyRepo[T]
	log   *zap.Logger
}

func NewTagService(store *repo.Store, l *zap.Logger) *TaxonomyService[domain.Tag] {
	return newTaxonomyService(store, func(s *repo.Store) *repo.TaxonomyRepo[domain.Tag] { return s.Tags }, l)
}

func NewIngredientService(store *repo.Store, l *zap.Logger) *TaxonomyService[domain.Ingredient] {
	return newTaxonomyService(store, func(s *repo.Store) *repo.TaxonomyRepo[domain.Ingredient] { return s.Ingredients }, l)
}

func newTaxonomyService[T domain.Taxon](store *repo.Store, pick func(*repo.Store) *repo.TaxonomyRepo[T], l *zap.Logger) *TaxonomyService[T] {
	if l == nil {
		l = zap.NewNop()
	}
	return &TaxonomyService[T]{store: store, pick: pick, log: l}
}

func (s *TaxonomyService[T]) List(ctx context.Context, owner uint, q domain.ListTaxaQuery) ([]T, error) {
	return s.pick(s.store).List(ctx, owner, q)
}

func (s *TaxonomyService[T]) Get(ctx context.Context, owner, id uint) (*T, error) {
	return s.pick(s.store).Get(ctx, owner, id)
}

func (s *TaxonomyService[T]) Update(ctx context.Context, owner, id uint, name string) (*T, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, domain.NewValidationError("name", "this field may not be blank")
	case len(name) > 255:
		return nil, domain.NewValidationError("name", "ensure this field has no more than 255 characters")
	}
	return s.pick(s.store).Rename(ctx, owner, id, name)
}

func (s *TaxonomyService[T]) Delete(ctx context.Context, owner, id uint) error {
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		return s.pick(tx).Delete(ctx, owner, id)
	})
	if err != nil {
		return err
	}
	var zero T
	s.log.Info("taxonomy record deleted", zap.String("kind", zero.Kind()), zap.Uint("id", id), zap.Uint("user_id", owner))
	return nil
}
