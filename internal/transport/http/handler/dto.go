package handler

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"recipe-api/internal/domain"
	"recipe-api/internal/transport/http/ez"
)

type taxonIn struct {
	Name string `json:"name"`
}

type taxonOut struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func toTaxonOut[T domain.Taxon](item T) taxonOut {
	l := item.Label()
	return taxonOut{ID: l.ID, Name: l.Name}
}

func toTaxaOut[T domain.Taxon](items []T) []taxonOut {
	out := make([]taxonOut, 0, len(items))
	for _, it := range items {
		out = append(out, toTaxonOut(it))
	}
	return out
}

// taxonList tells an absent list from an explicit null.
type taxonList struct {
	items []taxonIn
	set   bool
	null  bool
}

func (l *taxonList) UnmarshalJSON(b []byte) error {
	l.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		l.null = true
		return nil
	}
	return json.Unmarshal(b, &l.items)
}

// recipeIn is the body of POST, PUT and PATCH. Absent fields stay nil; for
// tags and ingredients absent means "leave as is" and [] means "clear".
type recipeIn struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link"`
	Tags        taxonList        `json:"tags"`
	Ingredients taxonList        `json:"ingredients"`
}

// check rejects null lists. With full set it also enforces the fields POST
// and PUT cannot do without.
func (in *recipeIn) check(full bool) error {
	fields := map[string]string{}
	if in.Tags.null {
		fields["tags"] = "this field may not be null"
	}
	if in.Ingredients.null {
		fields["ingredients"] = "this field may not be null"
	}
	if full {
		if in.Title == nil {
			fields["title"] = "this field is required"
		}
		if in.TimeMinutes == nil {
			fields["time_minutes"] = "this field is required"
		}
		if in.Price == nil {
			fields["price"] = "this field is required"
		}
	}
	if len(fields) > 0 {
		return ez.Invalid(fields)
	}
	return nil
}

func descriptors(in taxonList) *[]domain.Descriptor {
	if !in.set || in.null {
		return nil
	}
	out := make([]domain.Descriptor, 0, len(in.items))
	for _, t := range in.items {
		out = append(out, domain.Descriptor{Name: t.Name})
	}
	return &out
}

func (in *recipeIn) patch() domain.RecipePatch {
	return domain.RecipePatch{
		Title:       in.Title,
		Description: in.Description,
		TimeMinutes: in.TimeMinutes,
		Price:       in.Price,
		Link:        in.Link,
		Tags:        descriptors(in.Tags),
		Ingredients: descriptors(in.Ingredients),
	}
}

func (in *recipeIn) newRecipe() domain.NewRecipe {
	var n domain.NewRecipe
	if in.Title != nil {
		n.Title = *in.Title
	}
	if in.Description != nil {
		n.Description = *in.Description
	}
	if in.TimeMinutes != nil {
		n.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		n.Price = *in.Price
	}
	if in.Link != nil {
		n.Link = *in.Link
	}
	if d := descriptors(in.Tags); d != nil {
		n.Tags = *d
	}
	if d := descriptors(in.Ingredients); d != nil {
		n.Ingredients = *d
	}
	return n
}

type recipeOut struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	TimeMinutes int        `json:"time_minutes"`
	Price       string     `json:"price"`
	Link        string     `json:"link"`
	Tags        []taxonOut `json:"tags"`
	Ingredients []taxonOut `json:"ingredients"`
}

type recipeDetailOut struct {
	recipeOut
	Description string `json:"description"`
	Image       string `json:"image"`
}

func toRecipeOut(r *domain.Recipe) recipeOut {
	return recipeOut{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        toTaxaOut(r.Tags),
		Ingredients: toTaxaOut(r.Ingredients),
	}
}

type imageOut struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

type userOut struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserOut(u *domain.User) userOut {
	return userOut{Email: u.Email, Name: u.Name}
}
