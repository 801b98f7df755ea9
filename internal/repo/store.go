package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"recipe-api/internal/domain"
)

// Store groups the repositories over one gorm handle, which may be a
// transaction.
type Store struct {
	db          *gorm.DB
	Users       *UserRepo
	Recipes     *RecipeRepo
	Tags        *TaxonomyRepo[domain.Tag]
	Ingredients *TaxonomyRepo[domain.Ingredient]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepo(db),
		Recipes:     NewRecipeRepo(db),
		Tags:        NewTaxonomyRepo[domain.Tag](db),
		Ingredients: NewTaxonomyRepo[domain.Ingredient](db),
	}
}

// Tx runs fn inside one database transaction.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for callers needing raw access (health, admin).
func (s *Store) DB() *gorm.DB { return s.db }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// drivers without error translation
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
