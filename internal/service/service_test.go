package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-api/internal/core/database"
	"recipe-api/internal/domain"
	"recipe-api/internal/repo"
	"recipe-api/internal/storage"
)

type fixture struct {
	store    *repo.Store
	users    *UserService
	recipes  *RecipeService
	tags     *TaxonomyService[domain.Tag]
	ings     *TaxonomyService[domain.Ingredient]
	mediaDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, "sqlite", database.MigrateAuto))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	dir := t.TempDir()
	images, err := storage.NewLocal(dir, "/media")
	require.NoError(t, err)

	store := repo.NewStore(db)
	return &fixture{
		store:    store,
		users:    NewUserService(store, nil),
		recipes:  NewRecipeService(store, images, 1<<20, nil),
		tags:     NewTagService(store, nil),
		ings:     NewIngredientService(store, nil),
		mediaDir: dir,
	}
}

func (f *fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), domain.NewUser{Email: email, Password: "testpass123"})
	require.NoError(t, err)
	return u
}

func (f *fixture) recipe(t *testing.T, owner uint, title string, tags, ings []string) *domain.Recipe {
	t.Helper()
	in := domain.NewRecipe{
		Title:       title,
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("5.25"),
	}
	for _, n := range tags {
		in.Tags = append(in.Tags, domain.Descriptor{Name: n})
	}
	for _, n := range ings {
		in.Ingredients = append(in.Ingredients, domain.Descriptor{Name: n})
	}
	rec, err := f.recipes.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return rec
}

func tagNames(r *domain.Recipe) []string {
	out := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		out = append(out, t.Name)
	}
	return out
}

func recipeIDs(rs []domain.Recipe) []uint {
	out := make([]uint, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func descriptors(names ...string) *[]domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Descriptor{Name: n})
	}
	return &out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

// ---- users ----

func TestCreateUserNormalizesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tc := range [][2]string{
		{"test1@EXAMPLE.com", "test1@example.com"},
		{"Test2@Example.com", "Test2@example.com"},
		{"TEST3@EXAMPLE.COM", "TEST3@example.com"},
		{"test4@example.COM", "test4@example.com"},
	} {
		u, err := f.users.CreateUser(ctx, domain.NewUser{Email: tc[0], Password: "sample123"})
		require.NoError(t, err)
		assert.Equal(t, tc[1], u.Email)
		assert.True(t, u.IsActive)
	}
}

func TestCreateUserWithoutEmailPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.CreateUser(context.Background(), domain.NewUser{Email: "  ", Password: "test123"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")

	var n int64
	require.NoError(t, f.store.DB().Model(&domain.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.user(t, "dup@example.com")

	_, err := f.users.CreateUser(context.Background(), domain.NewUser{Email: "dup@EXAMPLE.com", Password: "x"})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)
}

func TestCreateSuperuser(t *testing.T) {
	f := newFixture(t)
	u, err := f.users.CreateSuperuser(context.Background(), "admin@example.com", "test123")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsSuperuser)

	got, err := f.users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSuperuser)
	assert.Equal(t, domain.RoleSuperuser, got.Role())
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "cook@Example.com")

	got, err := f.users.Authenticate(ctx, "cook@EXAMPLE.COM", "testpass123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Authenticate(ctx, "cook@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.users.Authenticate(ctx, "nobody@example.com", "testpass123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, "cook@example.com", "testpass123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	nopw, err := f.users.CreateUser(ctx, domain.NewUser{Email: "nopw@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, nopw.PasswordHash)
	_, err = f.users.Authenticate(ctx, "nopw@example.com", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "me@example.com")

	name, pw := "Updated name", "newpassword123"
	got, err := f.users.UpdateProfile(ctx, u.ID, domain.UserPatch{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "Updated name", got.Name)

	_, err = f.users.Authenticate(ctx, "me@example.com", pw)
	assert.NoError(t, err)

	short := "abc"
	_, err = f.users.UpdateProfile(ctx, u.ID, domain.UserPatch{Password: &short})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")
}

func TestSetStaff(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "staff@example.com")
	got, err := f.users.SetStaff(context.Background(), u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, got.Role())

	_, err = f.users.SetStaff(context.Background(), 9999, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- recipes ----

func TestCreateRecipeWithNewAndExistingTags(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "user@example.com")

	r1 := f.recipe(t, u.ID, "Thai curry", []string{"Thai", "Vegan"}, nil)
	r2 := f.recipe(t, u.ID, "Pongal", []string{"Vegan", "Breakfast"}, []string{"Rice"})

	assert.ElementsMatch(t, []string{"Thai", "Vegan"}, tagNames(r1))
	assert.ElementsMatch(t, []string{"Vegan", "Breakfast"}, tagNames(r2))
	require.Len(t, r2.Ingredients, 1)

	var vegan int64
	require.NoError(t, f.store.DB().Model(&domain.Tag{}).
		Where("user_id = ? AND name = ?", u.ID, "Vegan").Count(&vegan).Error)
	assert.EqualValues(t, 1, vegan)
}

func TestCreateRecipeDuplicateDescriptorsAttachOnce(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "user@example.com")

	r := f.recipe(t, u.ID, "Salad", []string{"Vegan", " Vegan "}, []string{"Salt", "Salt"})
	assert.Equal(t, []string{"Vegan"}, tagNames(r))
	assert.Len(t, r.Ingredients, 1)
}

func TestCreateRecipeSameNameDifferentOwners(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")

	ra := f.recipe(t, a.ID, "A", []string{"Vegan"}, nil)
	rb := f.recipe(t, b.ID, "B", []string{"Vegan"}, nil)

	require.Len(t, ra.Tags, 1)
	require.Len(t, rb.Tags, 1)
	assert.NotEqual(t, ra.Tags[0].ID, rb.Tags[0].ID)
	assert.Equal(t, b.ID, rb.Tags[0].UserID)
}

func TestCreateRecipeBlankTagRollsBack(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "user@example.com")

	_, err := f.recipes.Create(context.Background(), u.ID, domain.NewRecipe{
		Title:       "Broken",
		TimeMinutes: 5,
		Price:       decimal.RequireFromString("1.00"),
		Tags:        []domain.Descriptor{{Name: "ok"}, {Name: "   "}},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "tags")

	var n int64
	require.NoError(t, f.store.DB().Model(&domain.Recipe{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateRecipeValidatesScalars(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "user@example.com")

	_, err := f.recipes.Create(context.Background(), u.ID, domain.NewRecipe{
		Title:       " ",
		TimeMinutes: -1,
		Price:       decimal.RequireFromString("12.345"),
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
}

func TestUpdateTagsReplaceClearAndKeep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "user@example.com")
	r := f.recipe(t, u.ID, "Curry", []string{"Breakfast"}, []string{"Rice"})

	// supplied list replaces
	got, err := f.recipes.Update(ctx, u.ID, r.ID, domain.RecipePatch{Tags: descriptors("Lunch")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch"}, tagNames(got))
	assert.Len(t, got.Ingredients, 1, "ingredients absent from the patch stay")

	// the old tag survives on its own
	tags, err := f.tags.List(ctx, u.ID, domain.ListTaxaQuery{})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	// absent list keeps
	title := "Red curry"
	got, err = f.recipes.Update(ctx, u.ID, r.ID, domain.RecipePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Red curry", got.Title)
	assert.Equal(t, []string{"Lunch"}, tagNames(got))

	// empty list clears
	got, err = f.recipes.Update(ctx, u.ID, r.ID, domain.RecipePatch{Tags: descriptors(), Ingredients: descriptors()})
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Ingredients)
}

func TestFullUpdateKeepsOwner(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "user@example.com")
	r := f.recipe(t, u.ID, "Soup", []string{"Hot"}, nil)

	p := domain.NewRecipe{
		Title:       "New soup",
		Description: "better",
		TimeMinutes: 25,
		Price:       decimal.RequireFromString("9.99"),
		Link:        "https://example.com/soup",
	}.Patch()
	got, err := f.recipes.Update(context.Background(), u.ID, r.ID, p)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, "better", got.Description)
	assert.Equal(t, 25, got.TimeMinutes)
	assert.Equal(t, "9.99", got.Price.StringFixed(2))
	assert.Empty(t, got.Tags)
}

func TestForeignRecipeIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	r := f.recipe(t, owner.ID, "Mine", nil, nil)

	_, err := f.recipes.Get(ctx, other.ID, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	title := "Stolen"
	_, err = f.recipes.Update(ctx, other.ID, r.ID, domain.RecipePatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.recipes.Delete(ctx, other.ID, r.ID), domain.ErrNotFound)

	_, err = f.recipes.UploadImage(ctx, other.ID, r.ID, domain.ImageUpload{Content: pngBytes(t)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.recipes.Get(ctx, owner.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
}

func TestListScopingOrderingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")

	r1 := f.recipe(t, a.ID, "Thai vegetable curry", []string{"Vegan", "Thai"}, []string{"Cauliflower"})
	r2 := f.recipe(t, a.ID, "Aubergine with tahini", []string{"Vegan"}, []string{"Salt"})
	r3 := f.recipe(t, a.ID, "Fish and chips", nil, []string{"Cauliflower"})
	foreign := f.recipe(t, b.ID, "Other vegan", []string{"Vegan"}, nil)

	all, err := f.recipes.List(ctx, a.ID, domain.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{r3.ID, r2.ID, r1.ID}, recipeIDs(all))

	vegan, thai := r1.Tags[0].ID, r1.Tags[1].ID
	// r1 carries both tags but is listed once
	got, err := f.recipes.List(ctx, a.ID, domain.RecipeFilter{TagIDs: []uint{vegan, thai}})
	require.NoError(t, err)
	assert.Equal(t, []uint{r2.ID, r1.ID}, recipeIDs(got))

	cauliflower := r1.Ingredients[0].ID
	got, err = f.recipes.List(ctx, a.ID, domain.RecipeFilter{IngredientIDs: []uint{cauliflower}})
	require.NoError(t, err)
	assert.Equal(t, []uint{r3.ID, r1.ID}, recipeIDs(got))

	// AND across fields
	got, err = f.recipes.List(ctx, a.ID, domain.RecipeFilter{TagIDs: []uint{vegan}, IngredientIDs: []uint{cauliflower}})
	require.NoError(t, err)
	assert.Equal(t, []uint{r1.ID}, recipeIDs(got))

	// another owner's tag id never widens the result
	got, err = f.recipes.List(ctx, a.ID, domain.RecipeFilter{TagIDs: []uint{foreign.Tags[0].ID}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.recipes.List(ctx, b.ID, domain.RecipeFilter{TagIDs: []uint{vegan}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteRecipeKeepsTaxonomy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "user@example.com")
	r := f.recipe(t, u.ID, "Soup", []string{"Hot"}, []string{"Water"})

	require.NoError(t, f.recipes.Delete(ctx, u.ID, r.ID))
	_, err := f.recipes.Get(ctx, u.ID, r.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tags, err := f.tags.List(ctx, u.ID, domain.ListTaxaQuery{})
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	var links int64
	require.NoError(t, f.store.DB().Table("recipe_tags").Count(&links).Error)
	assert.Zero(t, links)
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "user@example.com")
	r := f.recipe(t, u.ID, "Pie", nil, nil)

	got, err := f.recipes.UploadImage(ctx, u.ID, r.ID, domain.ImageUpload{Filename: "pie.png", Content: pngBytes(t)})
	require.NoError(t, err)
	require.NotEmpty(t, got.Image)
	first := got.Image
	_, err = os.Stat(filepath.Join(f.mediaDir, filepath.FromSlash(first)))
	require.NoError(t, err)

	url, err := f.recipes.ImageURL(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "/media/"+first, url)

	// missing file leaves the current image in place
	_, err = f.recipes.UploadImage(ctx, u.ID, r.ID, domain.ImageUpload{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "image")

	_, err = f.recipes.UploadImage(ctx, u.ID, r.ID, domain.ImageUpload{Filename: "x.png", Content: []byte("notanimage")})
	require.ErrorAs(t, err, &ve)

	cur, err := f.recipes.Get(ctx, u.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, first, cur.Image)

	// a replacement removes the previous file
	got, err = f.recipes.UploadImage(ctx, u.ID, r.ID, domain.ImageUpload{Filename: "pie2.png", Content: pngBytes(t)})
	require.NoError(t, err)
	assert.NotEqual(t, first, got.Image)
	_, err = os.Stat(filepath.Join(f.mediaDir, filepath.FromSlash(first)))
	assert.True(t, os.IsNotExist(err))

	// deleting the recipe removes its image
	require.NoError(t, f.recipes.Delete(ctx, u.ID, r.ID))
	_, err = os.Stat(filepath.Join(f.mediaDir, filepath.FromSlash(got.Image)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadImageTooLarge(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "user@example.com")
	r := f.recipe(t, u.ID, "Pie", nil, nil)
	f.recipes.maxImageBytes = 10

	_, err := f.recipes.UploadImage(context.Background(), u.ID, r.ID, domain.ImageUpload{Content: pngBytes(t)})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "image")
}

func TestImageURLEmpty(t *testing.T) {
	f := newFixture(t)
	url, err := f.recipes.ImageURL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, url)
}

// ---- taxonomy ----

func TestTaxonomyListOrderAndScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")

	f.recipe(t, a.ID, "One", []string{"Breakfast"}, []string{"Kale", "Salt"})
	f.recipe(t, a.ID, "Two", []string{"Dessert", "Vegan"}, nil)
	f.recipe(t, b.ID, "Three", []string{"Zesty"}, []string{"Pepper"})

	tags, err := f.tags.List(ctx, a.ID, domain.ListTaxaQuery{})
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tg := range tags {
		names = append(names, tg.Name)
	}
	assert.Equal(t, []string{"Vegan", "Dessert", "Breakfast"}, names)

	ings, err := f.ings.List(ctx, a.ID, domain.ListTaxaQuery{})
	require.NoError(t, err)
	require.Len(t, ings, 2)
	assert.Equal(t, "Salt", ings[0].Name)
	assert.Equal(t, "Kale", ings[1].Name)
}

func TestTaxonomyAssignedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "user@example.com")
	r := f.recipe(t, u.ID, "Eggs", nil, []string{"Eggs", "Toast"})

	// detach Toast by replacing the ingredient list
	_, err := f.recipes.Update(ctx, u.ID, r.ID, domain.RecipePatch{Ingredients: descriptors("Eggs")})
	require.NoError(t, err)

	all, err := f.ings.List(ctx, u.ID, domain.ListTaxaQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assigned, err := f.ings.List(ctx, u.ID, domain.ListTaxaQuery{AssignedOnly: true})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "Eggs", assigned[0].Name)
}

func TestTaxonomyUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	r := f.recipe(t, a.ID, "Dinner", []string{"After dinner", "Dessert"}, nil)
	tagID := r.Tags[0].ID

	got, err := f.tags.Update(ctx, a.ID, tagID, " Supper ")
	require.NoError(t, err)
	assert.Equal(t, "Supper", got.Name)

	_, err = f.tags.Update(ctx, a.ID, tagID, "Dessert")
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "name", ce.Field)

	_, err = f.tags.Update(ctx, a.ID, tagID, "")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.tags.Update(ctx, b.ID, tagID, "Mine now")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaxonomyDeleteDetaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	r := f.recipe(t, a.ID, "Toast", nil, []string{"Bread", "Butter"})
	bread := r.Ingredients[0].ID

	assert.ErrorIs(t, f.ings.Delete(ctx, b.ID, bread), domain.ErrNotFound)

	require.NoError(t, f.ings.Delete(ctx, a.ID, bread))
	got, err := f.recipes.Get(ctx, a.ID, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "Butter", got.Ingredients[0].Name)

	assert.ErrorIs(t, f.ings.Delete(ctx, a.ID, bread), domain.ErrNotFound)
}
