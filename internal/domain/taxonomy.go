package domain

import "time"

// Tag is a label owned by one user. Names are unique per owner.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_tags_user_name" json:"-"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_tags_user_name" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Tag) TableName() string { return "tags" }

// Ingredient has the same shape and invariants as Tag but is a separate entity.
type Ingredient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ingredients_user_name" json:"-"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_ingredients_user_name" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Ingredient) TableName() string { return "ingredients" }

// Label is the kind-independent view of a taxonomy record.
type Label struct {
	ID     uint
	UserID uint
	Name   string
}

// Taxon is satisfied by the two owned taxonomy kinds. Generic repositories and
// services use it so tags and ingredients share one implementation.
type Taxon interface {
	Tag | Ingredient
	Label() Label
	// Kind is the singular lowercase name, used in errors and metrics.
	Kind() string
	// RecipeField is the Recipe association holding this kind.
	RecipeField() string
	// RecipeJoin names the many2many join table and its column for this kind.
	RecipeJoin() (table, column string)
}

func (t Tag) Label() Label { return Label{ID: t.ID, UserID: t.UserID, Name: t.Name} }

func (Tag) Kind() string { return "tag" }

func (Tag) RecipeField() string { return "Tags" }

func (Tag) RecipeJoin() (string, string) { return "recipe_tags", "tag_id" }

func (i Ingredient) Label() Label { return Label{ID: i.ID, UserID: i.UserID, Name: i.Name} }

func (Ingredient) Kind() string { return "ingredient" }

func (Ingredient) RecipeField() string { return "Ingredients" }

func (Ingredient) RecipeJoin() (string, string) { return "recipe_ingredients", "ingredient_id" }

// Descriptor identifies a taxonomy record to resolve, e.g. {Name: "Vegan"}.
type Descriptor struct {
	Name string
}

// ListTaxaQuery narrows a taxonomy listing.
type ListTaxaQuery struct {
	// AssignedOnly keeps records attached to at least one recipe.
	AssignedOnly bool
}
