package ez

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminResource is a read-only record admin for model T, configured by field
// lists instead of per-model code. Field names may be Go names or columns.
type AdminResource[T any] struct {
	Path         string   // e.g. "/users"
	ListDisplay  []string // columns in list rows; id is always included
	Fields       []string // columns in the detail view; defaults to ListDisplay
	Ordering     []string // "-id" sorts descending
	SearchFields []string // matched with LIKE against ?q=
}

type adminListQuery struct {
	Q      string `form:"q"`
	Offset int    `form:"offset"`
	Limit  int    `form:"limit"`
}

type AdminPage struct {
	Total int64            `json:"total"`
	Items []map[string]any `json:"items"`
}

type adminColumns struct {
	list, detail, search []string
	order                []clause.OrderByColumn
}

// resolve maps configured names onto the model's columns and fails on
// anything the schema does not know.
func (r AdminResource[T]) resolve(db *gorm.DB) (adminColumns, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return adminColumns{}, err
	}
	col := func(name string) (string, error) {
		f := stmt.Schema.LookUpField(name)
		if f == nil || f.DBName == "" {
			return "", fmt.Errorf("admin %s: unknown field %q", r.Path, name)
		}
		return f.DBName, nil
	}
	cols := func(names []string) ([]string, error) {
		out := []string{"id"}
		for _, n := range names {
			c, err := col(n)
			if err != nil {
				return nil, err
			}
			if c != "id" {
				out = append(out, c)
			}
		}
		return out, nil
	}

	var ac adminColumns
	var err error
	if ac.list, err = cols(r.ListDisplay); err != nil {
		return ac, err
	}
	detail := r.Fields
	if len(detail) == 0 {
		detail = r.ListDisplay
	}
	if ac.detail, err = cols(detail); err != nil {
		return ac, err
	}
	for _, n := range r.SearchFields {
		c, err := col(n)
		if err != nil {
			return ac, err
		}
		ac.search = append(ac.search, c)
	}
	for _, o := range r.Ordering {
		desc := strings.HasPrefix(o, "-")
		c, err := col(strings.TrimPrefix(o, "-"))
		if err != nil {
			return ac, err
		}
		ac.order = append(ac.order, clause.OrderByColumn{Column: clause.Column{Name: c}, Desc: desc})
	}
	if len(ac.order) == 0 {
		ac.order = []clause.OrderByColumn{{Column: clause.Column{Name: "id"}, Desc: true}}
	}
	return ac, nil
}

// MountAdmin registers GET <Path> and GET <Path>/:id. It panics on a
// misconfigured resource, like gin does for conflicting routes.
func MountAdmin[T any](e EZ, db *gorm.DB, r AdminResource[T]) {
	ac, err := r.resolve(db)
	if err != nil {
		panic(err)
	}

	RegisterAction(e, Action[adminListQuery, AdminPage]{
		Method: http.MethodGet,
		Path:   r.Path,
		Binder: BindQuery,
		Handler: func(c *gin.Context, in *adminListQuery) (AdminPage, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			if in.Offset < 0 {
				in.Offset = 0
			}
			q := db.WithContext(c.Request.Context()).Model(new(T))
			if s := strings.TrimSpace(in.Q); s != "" && len(ac.search) > 0 {
				like := "%" + s + "%"
				cond := db.Where(clause.Like{Column: clause.Column{Name: ac.search[0]}, Value: like})
				for _, col := range ac.search[1:] {
					cond = cond.Or(clause.Like{Column: clause.Column{Name: col}, Value: like})
				}
				q = q.Where(cond)
			}
			q = q.Session(&gorm.Session{})

			var total int64
			if err := q.Count(&total).Error; err != nil {
				return AdminPage{}, Internal("count failed", err)
			}
			items := []map[string]any{}
			err := q.Select(ac.list).
				Order(clause.OrderBy{Columns: ac.order}).
				Limit(in.Limit).Offset(in.Offset).
				Find(&items).Error
			if err != nil {
				return AdminPage{}, Internal("list failed", err)
			}
			for _, it := range items {
				textify(it)
			}
			return AdminPage{Total: total, Items: items}, nil
		},
	})

	RegisterAction(e, Action[struct{}, map[string]any]{
		Method: http.MethodGet,
		Path:   r.Path + "/:id",
		Binder: BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (map[string]any, error) {
			id, err := ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			var rows []map[string]any
			err = db.WithContext(c.Request.Context()).Model(new(T)).Select(ac.detail).
				Where("id = ?", id).Limit(1).Find(&rows).Error
			if err != nil {
				return nil, Internal("get failed", err)
			}
			if len(rows) == 0 {
				return nil, NotFound("not found")
			}
			return textify(rows[0]), nil
		},
	})
}

// textify turns raw byte columns, as some drivers return for text, into strings.
func textify(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
