package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Price bounds: five digits, two of them decimal places.
var maxPrice = decimal.NewFromInt(1000)

type Recipe struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"not null;index"`
	Title       string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text;not null;default:''"`
	TimeMinutes int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Link        string          `gorm:"size:255;not null;default:''"`
	Image       string          `gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Tags        []Tag        `gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients;"`
}

func (Recipe) TableName() string { return "recipes" }

// NewRecipe is the input of recipe creation.
type NewRecipe struct {
	Title       string
	Description string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Tags        []Descriptor
	Ingredients []Descriptor
}

// Patch converts creation input into the equivalent full patch.
func (n NewRecipe) Patch() RecipePatch {
	tags, ingredients := n.Tags, n.Ingredients
	return RecipePatch{
		Title:       &n.Title,
		Description: &n.Description,
		TimeMinutes: &n.TimeMinutes,
		Price:       &n.Price,
		Link:        &n.Link,
		Tags:        &tags,
		Ingredients: &ingredients,
	}
}

// RecipePatch is a partial update. A nil field is left unchanged; for Tags and
// Ingredients a non-nil empty slice clears the association.
type RecipePatch struct {
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Tags        *[]Descriptor
	Ingredients *[]Descriptor
}

// Apply merges the scalar fields into r.
func (p RecipePatch) Apply(r *Recipe) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.TimeMinutes != nil {
		r.TimeMinutes = *p.TimeMinutes
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Link != nil {
		r.Link = *p.Link
	}
}

// Validate checks the scalar fields that are present.
func (p RecipePatch) Validate() error {
	fields := map[string]string{}
	if p.Title != nil {
		switch t := strings.TrimSpace(*p.Title); {
		case t == "":
			fields["title"] = "this field may not be blank"
		case len(t) > 255:
			fields["title"] = "ensure this field has no more than 255 characters"
		}
	}
	if p.TimeMinutes != nil && *p.TimeMinutes < 0 {
		fields["time_minutes"] = "ensure this value is greater than or equal to 0"
	}
	if p.Price != nil {
		if msg := checkPrice(*p.Price); msg != "" {
			fields["price"] = msg
		}
	}
	if p.Link != nil && len(*p.Link) > 255 {
		fields["link"] = "ensure this field has no more than 255 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkPrice(d decimal.Decimal) string {
	if !d.Equal(d.Round(2)) {
		return "ensure that there are no more than 2 decimal places"
	}
	if d.Abs().GreaterThanOrEqual(maxPrice) {
		return "ensure that there are no more than 5 digits in total"
	}
	return ""
}

// RecipeFilter narrows a recipe listing. Ids within a field are alternatives;
// both fields must match when both are set.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// ParseIDList parses a comma separated id list such as "1,3,5". An empty
// string yields no ids.
func ParseIDList(field, raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, NewValidationError(field, "expected a comma separated list of integer ids")
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

// ImageUpload is one uploaded file. A nil Content means no file was sent.
type ImageUpload struct {
	Filename string
	Content  []byte
}
