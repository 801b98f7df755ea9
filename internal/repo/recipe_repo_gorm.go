package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipe-api/internal/domain"
)

type RecipeRepo struct{ db *gorm.DB }

func NewRecipeRepo(db *gorm.DB) *RecipeRepo { return &RecipeRepo{db: db} }

func (r *RecipeRepo) withTaxa(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

// Create inserts the scalar fields only; relations are attached afterwards.
func (r *RecipeRepo) Create(ctx context.Context, rec *domain.Recipe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error
}

// Get loads an owned recipe with its tags and ingredients.
func (r *RecipeRepo) Get(ctx context.Context, owner, id uint) (*domain.Recipe, error) {
	var rec domain.Recipe
	err := r.withTaxa(ctx).Where("user_id = ? AND id = ?", owner, id).First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// List returns the owner's recipes, newest first. The ownership predicate is
// always applied; tag and ingredient filters only narrow it further.
func (r *RecipeRepo) List(ctx context.Context, owner uint, f domain.RecipeFilter) ([]domain.Recipe, error) {
	q := r.withTaxa(ctx).Where("user_id = ?", owner)
	if len(f.TagIDs) > 0 {
		q = q.Where("id IN (?)", r.db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", f.TagIDs))
	}
	if len(f.IngredientIDs) > 0 {
		q = q.Where("id IN (?)", r.db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", f.IngredientIDs))
	}
	var out []domain.Recipe
	if err := q.Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save persists the scalar fields of an existing recipe.
func (r *RecipeRepo) Save(ctx context.Context, rec *domain.Recipe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error
}

// Delete removes the recipe and its join rows. Callers run it inside a
// transaction.
func (r *RecipeRepo) Delete(ctx context.Context, rec *domain.Recipe) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(rec).Association("Tags").Clear(); err != nil {
		return err
	}
	if err := db.Model(rec).Association("Ingredients").Clear(); err != nil {
		return err
	}
	return db.Delete(&domain.Recipe{}, "id = ? AND user_id = ?", rec.ID, rec.UserID).Error
}

// SetImage replaces the stored image key.
func (r *RecipeRepo) SetImage(ctx context.Context, rec *domain.Recipe, key string) error {
	err := r.db.WithContext(ctx).Model(&domain.Recipe{}).
		Where("id = ? AND user_id = ?", rec.ID, rec.UserID).
		Update("image", key).Error
	if err != nil {
		return err
	}
	rec.Image = key
	return nil
}
