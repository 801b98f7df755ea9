package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"recipe-api/internal/domain"
	"recipe-api/internal/repo"
	"recipe-api/internal/storage"
)

type RecipeService struct {
	store         *repo.Store
	images        storage.ImageStore
	maxImageBytes int
	log           *zap.Logger
}

func NewRecipeService(store *repo.Store, images storage.ImageStore, maxImageBytes int, l *zap.Logger) *RecipeService {
	if l == nil {
		l = zap.NewNop()
	}
	return &RecipeService{store: store, images: images, maxImageBytes: maxImageBytes, log: l}
}

func normalizePatch(p *domain.RecipePatch) error {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	return p.Validate()
}

// apply writes p to rec and resolves its tag and ingredient lists. A nil list
// leaves that relation untouched, a non-nil one replaces it.
func apply(ctx context.Context, tx *repo.Store, rec *domain.Recipe, p domain.RecipePatch, replace bool, res *resolutions) error {
	if p.Tags != nil {
		if err := resolveAndAttach(ctx, tx.Tags, rec, *p.Tags, rec.UserID, replace, res); err != nil {
			return err
		}
	}
	if p.Ingredients != nil {
		if err := resolveAndAttach(ctx, tx.Ingredients, rec, *p.Ingredients, rec.UserID, replace, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecipeService) Create(ctx context.Context, owner uint, in domain.NewRecipe) (*domain.Recipe, error) {
	p := in.Patch()
	if err := normalizePatch(&p); err != nil {
		return nil, err
	}
	var (
		out *domain.Recipe
		res resolutions
	)
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		rec := &domain.Recipe{UserID: owner}
		p.Apply(rec)
		if err := tx.Recipes.Create(ctx, rec); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := apply(ctx, tx, rec, p, false, &res); err != nil {
			return err
		}
		var err error
		out, err = tx.Recipes.Get(ctx, owner, rec.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.record()
	s.log.Info("recipe created", zap.Uint("id", out.ID), zap.Uint("user_id", owner))
	return out, nil
}

func (s *RecipeService) Get(ctx context.Context, owner, id uint) (*domain.Recipe, error) {
	return s.store.Recipes.Get(ctx, owner, id)
}

func (s *RecipeService) List(ctx context.Context, owner uint, f domain.RecipeFilter) ([]domain.Recipe, error) {
	return s.store.Recipes.List(ctx, owner, f)
}

// Update applies a full or partial patch to an owned recipe.
func (s *RecipeService) Update(ctx context.Context, owner, id uint, p domain.RecipePatch) (*domain.Recipe, error) {
	if err := normalizePatch(&p); err != nil {
		return nil, err
	}
	var (
		out *domain.Recipe
		res resolutions
	)
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		rec, err := tx.Recipes.Get(ctx, owner, id)
		if err != nil {
			return err
		}
		p.Apply(rec)
		if err := tx.Recipes.Save(ctx, rec); err != nil {
			return fmt.Errorf("save recipe: %w", err)
		}
		if err := apply(ctx, tx, rec, p, true, &res); err != nil {
			return err
		}
		out, err = tx.Recipes.Get(ctx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.record()
	return out, nil
}

func (s *RecipeService) Delete(ctx context.Context, owner, id uint) error {
	var image string
	err := s.store.Tx(ctx, func(tx *repo.Store) error {
		rec, err := tx.Recipes.Get(ctx, owner, id)
		if err != nil {
			return err
		}
		image = rec.Image
		return tx.Recipes.Delete(ctx, rec)
	})
	if err != nil {
		return err
	}
	s.dropImage(ctx, image)
	s.log.Info("recipe deleted", zap.Uint("id", id), zap.Uint("user_id", owner))
	return nil
}

// UploadImage stores a new image for an owned recipe and replaces the old one.
// A rejected upload leaves the current image in place.
func (s *RecipeService) UploadImage(ctx context.Context, owner, id uint, up domain.ImageUpload) (*domain.Recipe, error) {
	if _, err := s.store.Recipes.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	if len(up.Content) == 0 {
		return nil, domain.NewValidationError("image", "no file was submitted")
	}
	if s.maxImageBytes > 0 && len(up.Content) > s.maxImageBytes {
		return nil, domain.NewValidationError("image", fmt.Sprintf("file exceeds %d bytes", s.maxImageBytes))
	}
	contentType, ext, err := storage.Inspect(up.Content)
	if err != nil {
		return nil, domain.NewValidationError("image", "upload a valid image; the file was either not an image or a corrupted image")
	}

	key := storage.NewKey(ext)
	if err := s.images.Put(ctx, key, contentType, up.Content); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	var (
		out *domain.Recipe
		old string
	)
	err = s.store.Tx(ctx, func(tx *repo.Store) error {
		rec, err := tx.Recipes.Get(ctx, owner, id)
		if err != nil {
			return err
		}
		old = rec.Image
		if err := tx.Recipes.SetImage(ctx, rec, key); err != nil {
			return fmt.Errorf("set image: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		s.dropImage(ctx, key)
		return nil, err
	}
	s.dropImage(ctx, old)
	s.log.Info("recipe image uploaded",
		zap.Uint("id", id),
		zap.String("key", key),
		zap.String("filename", up.Filename),
		zap.Int("bytes", len(up.Content)),
	)
	return out, nil
}

// ImageURL resolves a stored key to a URL clients can fetch; "" for no image.
func (s *RecipeService) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.images.URL(ctx, key)
}

func (s *RecipeService) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("delete image failed", zap.String("key", key), zap.Error(err))
	}
}
