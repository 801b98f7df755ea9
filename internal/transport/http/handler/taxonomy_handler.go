package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-api/internal/domain"
	"recipe-api/internal/service"
	"recipe-api/internal/transport/http/ez"
)

// TaxonomyHandler serves /tags or /ingredients.
type TaxonomyHandler[T domain.Taxon] struct {
	svc  *service.TaxonomyService[T]
	path string
}

func NewTagHandler(svc *service.TaxonomyService[domain.Tag]) *TaxonomyHandler[domain.Tag] {
	return &TaxonomyHandler[domain.Tag]{svc: svc, path: "/tags"}
}

func NewIngredientHandler(svc *service.TaxonomyService[domain.Ingredient]) *TaxonomyHandler[domain.Ingredient] {
	return &TaxonomyHandler[domain.Ingredient]{svc: svc, path: "/ingredients"}
}

type taxonUpdateIn struct {
	Name *string `json:"name"`
}

type taxaListQuery struct {
	AssignedOnly int `form:"assigned_only" binding:"omitempty,oneof=0 1"`
}

func (h *TaxonomyHandler[T]) MountAPI(_, private ez.EZ) {
	ez.RegisterAction(private, ez.Action[taxaListQuery, []taxonOut]{
		Method: http.MethodGet,
		Path:   h.path,
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *taxaListQuery) ([]taxonOut, error) {
			items, err := h.svc.List(c.Request.Context(), ez.UserID(c), domain.ListTaxaQuery{AssignedOnly: in.AssignedOnly == 1})
			if err != nil {
				return nil, err
			}
			return toTaxaOut(items), nil
		},
	})
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		ez.RegisterAction(private, ez.Action[taxonUpdateIn, taxonOut]{
			Method:  method,
			Path:    h.path + "/:id",
			Binder:  ez.BindJSON,
			Auth:    true,
			Handler: h.update(method == http.MethodPut),
		})
	}
	ez.RegisterAction(private, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete,
		Path:   h.path + "/:id",
		Binder: ez.BindNone,
		Auth:   true,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, h.svc.Delete(c.Request.Context(), ez.UserID(c), id)
		},
	})
}

// update renames a record. PATCH without a name leaves it unchanged.
func (h *TaxonomyHandler[T]) update(full bool) func(*gin.Context, *taxonUpdateIn) (taxonOut, error) {
	return func(c *gin.Context, in *taxonUpdateIn) (taxonOut, error) {
		id, err := ez.ParamID(c, "id")
		if err != nil {
			return taxonOut{}, err
		}
		owner := ez.UserID(c)
		if in.Name == nil {
			if full {
				return taxonOut{}, ez.Invalid(map[string]string{"name": "this field is required"})
			}
			item, err := h.svc.Get(c.Request.Context(), owner, id)
			if err != nil {
				return taxonOut{}, err
			}
			return toTaxonOut(*item), nil
		}
		item, err := h.svc.Update(c.Request.Context(), owner, id, *in.Name)
		if err != nil {
			return taxonOut{}, err
		}
		return toTaxonOut(*item), nil
	}
}
