package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-api/internal/domain"
	"recipe-api/internal/service"
	"recipe-api/internal/transport/http/ez"
)

type RecipeHandler struct {
	recipes       *service.RecipeService
	maxImageBytes int64
}

func NewRecipeHandler(recipes *service.RecipeService, maxImageBytes int64) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, maxImageBytes: maxImageBytes}
}

type recipeListQuery struct {
	Tags        string `form:"tags"`
	Ingredients string `form:"ingredients"`
}

func (h *RecipeHandler) MountAPI(_, private ez.EZ) {
	ez.RegisterAction(private, ez.Action[recipeListQuery, []recipeOut]{
		Method:  http.MethodGet,
		Path:    "/recipes",
		Binder:  ez.BindQuery,
		Auth:    true,
		Handler: h.list,
	})
	ez.RegisterAction(private, ez.Action[recipeIn, recipeDetailOut]{
		Method:  http.MethodPost,
		Path:    "/recipes",
		Binder:  ez.BindJSON,
		Auth:    true,
		Status:  http.StatusCreated,
		Handler: h.create,
	})
	ez.RegisterAction(private, ez.Action[struct{}, recipeDetailOut]{
		Method: http.MethodGet,
		Path:   "/recipes/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (recipeDetailOut, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return recipeDetailOut{}, err
			}
			rec, err := h.recipes.Get(c.Request.Context(), ez.UserID(c), id)
			if err != nil {
				return recipeDetailOut{}, err
			}
			return h.detail(c.Request.Context(), rec)
		},
	})
	ez.RegisterAction(private, ez.Action[recipeIn, recipeDetailOut]{
		Method:  http.MethodPut,
		Path:    "/recipes/:id",
		Binder:  ez.BindJSON,
		Auth:    true,
		Handler: h.update(true),
	})
	ez.RegisterAction(private, ez.Action[recipeIn, recipeDetailOut]{
		Method:  http.MethodPatch,
		Path:    "/recipes/:id",
		Binder:  ez.BindJSON,
		Auth:    true,
		Handler: h.update(false),
	})
	ez.RegisterAction(private, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   "/recipes/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, h.recipes.Delete(c.Request.Context(), ez.UserID(c), id)
		},
	})
	ez.RegisterAction(private, ez.Action[struct{}, imageOut]{
		Method:  http.MethodPost,
		Path:    "/recipes/:id/upload-image",
		Binder:  ez.BindNone,
		Auth:    true,
		Handler: h.uploadImage,
	})
}

func (h *RecipeHandler) list(c *gin.Context, in *recipeListQuery) ([]recipeOut, error) {
	tags, err := domain.ParseIDList("tags", in.Tags)
	if err != nil {
		return nil, err
	}
	ings, err := domain.ParseIDList("ingredients", in.Ingredients)
	if err != nil {
		return nil, err
	}
	recs, err := h.recipes.List(c.Request.Context(), ez.UserID(c), domain.RecipeFilter{TagIDs: tags, IngredientIDs: ings})
	if err != nil {
		return nil, err
	}
	out := make([]recipeOut, 0, len(recs))
	for i := range recs {
		out = append(out, toRecipeOut(&recs[i]))
	}
	return out, nil
}

func (h *RecipeHandler) create(c *gin.Context, in *recipeIn) (recipeDetailOut, error) {
	if err := in.check(true); err != nil {
		return recipeDetailOut{}, err
	}
	rec, err := h.recipes.Create(c.Request.Context(), ez.UserID(c), in.newRecipe())
	if err != nil {
		return recipeDetailOut{}, err
	}
	return h.detail(c.Request.Context(), rec)
}

func (h *RecipeHandler) update(full bool) func(*gin.Context, *recipeIn) (recipeDetailOut, error) {
	return func(c *gin.Context, in *recipeIn) (recipeDetailOut, error) {
		id, err := ez.ParamID(c, "id")
		if err != nil {
			return recipeDetailOut{}, err
		}
		if err := in.check(full); err != nil {
			return recipeDetailOut{}, err
		}
		rec, err := h.recipes.Update(c.Request.Context(), ez.UserID(c), id, in.patch())
		if err != nil {
			return recipeDetailOut{}, err
		}
		return h.detail(c.Request.Context(), rec)
	}
}

func (h *RecipeHandler) uploadImage(c *gin.Context, _ *struct{}) (imageOut, error) {
	id, err := ez.ParamID(c, "id")
	if err != nil {
		return imageOut{}, err
	}
	var up domain.ImageUpload
	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// the service reports the missing file after the ownership check
	case err != nil:
		return imageOut{}, ez.BadRequest(fmt.Sprintf("invalid multipart form: %v", err))
	default:
		f, err := fh.Open()
		if err != nil {
			return imageOut{}, ez.Internal("open upload", err)
		}
		defer f.Close()
		var r io.Reader = f
		if h.maxImageBytes > 0 {
			// one byte over is enough for the service to reject it
			r = io.LimitReader(f, h.maxImageBytes+1)
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return imageOut{}, ez.Internal("read upload", err)
		}
		up = domain.ImageUpload{Filename: fh.Filename, Content: content}
	}

	rec, err := h.recipes.UploadImage(c.Request.Context(), ez.UserID(c), id, up)
	if err != nil {
		return imageOut{}, err
	}
	url, err := h.recipes.ImageURL(c.Request.Context(), rec.Image)
	if err != nil {
		return imageOut{}, err
	}
	return imageOut{ID: rec.ID, Image: url}, nil
}

func (h *RecipeHandler) detail(ctx context.Context, rec *domain.Recipe) (recipeDetailOut, error) {
	url, err := h.recipes.ImageURL(ctx, rec.Image)
	if err != nil {
		return recipeDetailOut{}, err
	}
	return recipeDetailOut{
		recipeOut:   toRecipeOut(rec),
		Description: rec.Description,
		Image:       url,
	}, nil
}
