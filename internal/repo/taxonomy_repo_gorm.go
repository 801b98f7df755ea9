package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipe-api/internal/domain"
)

// TaxonomyRepo stores one taxonomy kind. Every method is scoped to an owner.
type TaxonomyRepo[T domain.Taxon] struct{ db *gorm.DB }

func NewTaxonomyRepo[T domain.Taxon](db *gorm.DB) *TaxonomyRepo[T] {
	return &TaxonomyRepo[T]{db: db}
}

func (r *TaxonomyRepo[T]) owned(ctx context.Context, owner uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", owner)
}

// List returns the owner's records ordered by name descending.
func (r *TaxonomyRepo[T]) List(ctx context.Context, owner uint, q domain.ListTaxaQuery) ([]T, error) {
	tx := r.owned(ctx, owner)
	if q.AssignedOnly {
		var zero T
		join, col := zero.RecipeJoin()
		tx = tx.Where("id IN (?)", r.db.Table(join).Select(col))
	}
	var out []T
	if err := tx.Order("name DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TaxonomyRepo[T]) Get(ctx context.Context, owner, id uint) (*T, error) {
	var out T
	if err := r.owned(ctx, owner).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

// Rename changes the name of an owned record.
func (r *TaxonomyRepo[T]) Rename(ctx context.Context, owner, id uint, name string) (*T, error) {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	err := r.owned(ctx, owner).Where("id = ?", id).Update("name", name).Error
	if err != nil {
		if isDupKey(err) {
			return nil, &domain.ConflictError{Field: "name", Value: name}
		}
		return nil, err
	}
	return r.Get(ctx, owner, id)
}

// Delete detaches the record from every recipe and removes it. Callers run it
// inside a transaction.
func (r *TaxonomyRepo[T]) Delete(ctx context.Context, owner, id uint) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}
	var zero T
	join, col := zero.RecipeJoin()
	if err := r.db.WithContext(ctx).Exec("DELETE FROM "+join+" WHERE "+col+" = ?", id).Error; err != nil {
		return err
	}
	return r.owned(ctx, owner).Where("id = ?", id).Delete(new(T)).Error
}

// GetOrCreate returns the owner's record with the given name, inserting it
// first when missing. The insert is a no-op on the (user_id, name) unique
// index, so concurrent callers converge on one row.
func (r *TaxonomyRepo[T]) GetOrCreate(ctx context.Context, owner uint, name string) (*T, bool, error) {
	res := r.db.WithContext(ctx).Model(new(T)).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"user_id": owner, "name": name, "created_at": time.Now()})
	if res.Error != nil {
		return nil, false, res.Error
	}
	var out T
	if err := r.owned(ctx, owner).Where("name = ?", name).First(&out).Error; err != nil {
		return nil, false, err
	}
	return &out, res.RowsAffected > 0, nil
}

// Attach links item to the recipe. Linking an already linked item is a no-op.
func (r *TaxonomyRepo[T]) Attach(ctx context.Context, rec *domain.Recipe, item *T) error {
	var zero T
	return r.db.WithContext(ctx).Model(rec).Association(zero.RecipeField()).Append(item)
}

// DetachAll unlinks every record of this kind from the recipe.
func (r *TaxonomyRepo[T]) DetachAll(ctx context.Context, rec *domain.Recipe) error {
	var zero T
	return r.db.WithContext(ctx).Model(rec).Association(zero.RecipeField()).Clear()
}
