package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"recipe-api/internal/core/auth"
	"recipe-api/internal/core/cache"
	"recipe-api/internal/core/config"
	"recipe-api/internal/core/database"
	"recipe-api/internal/core/logger"
	"recipe-api/internal/core/server"
	"recipe-api/internal/domain"
	"recipe-api/internal/repo"
	"recipe-api/internal/service"
	"recipe-api/internal/storage"
	"recipe-api/internal/transport/http/handler"
	"recipe-api/internal/transport/http/router"
)

// App holds the wiring shared by the api and admin binaries.
type App struct {
	Cfg *config.Config
	Log *zap.Logger
	DB  *gorm.DB

	JWT       *auth.JWTer
	Blocklist cache.Blocklist
	Images    storage.ImageStore

	Users       *service.UserService
	Recipes     *service.RecipeService
	Tags        *service.TaxonomyService[domain.Tag]
	Ingredients *service.TaxonomyService[domain.Ingredient]

	closers []func() error
}

// New opens the database, migrates it and builds every service. Call Close
// when done.
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: l}
	if err := a.openDB(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openBlocklist(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openImages(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.JWT = &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	store := repo.NewStore(a.DB)
	a.Users = service.NewUserService(store, l)
	a.Recipes = service.NewRecipeService(store, a.Images, a.maxImageBytes(), l)
	a.Tags = service.NewTagService(store, l)
	a.Ingredients = service.NewIngredientService(store, l)
	return a, nil
}

func (a *App) openDB(ctx context.Context) error {
	c := a.Cfg.DB
	db, err := database.NewGorm(database.Opts{
		Driver:             c.Driver,
		DSN:                c.DSN,
		Username:           c.Username,
		Password:           c.Password,
		MaxOpenConns:       c.MaxOpenConns,
		MaxIdleConns:       c.MaxIdleConns,
		ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
		LogLevel:           c.LogLevel,
		Log:                a.Log,
	})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	delay := time.Duration(c.WaitDelaySec) * time.Second
	if err := database.WaitForDB(ctx, sqlDB, c.WaitAttempts, delay, a.Log); err != nil {
		return err
	}
	if err := database.Migrate(db, c.Driver, c.Migrate); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.Log.Info("database ready", zap.String("driver", c.Driver), zap.String("migrate", c.Migrate))
	return nil
}

// openBlocklist uses redis when enabled. The in-process fallback is only
// correct when a single binary issues and checks tokens.
func (a *App) openBlocklist(ctx context.Context) error {
	rc := a.Cfg.Redis
	if !rc.Enable {
		a.Log.Warn("redis disabled, revoked tokens are kept in memory")
		a.Blocklist = cache.NewMemory()
		return nil
	}
	c := cache.New(rc.Addr, rc.Password, rc.DB)
	a.closers = append(a.closers, c.Close)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pctx); err != nil {
		return fmt.Errorf("redis ping %s: %w", rc.Addr, err)
	}
	a.Blocklist = c
	return nil
}

func (a *App) openImages(ctx context.Context) error {
	sc := a.Cfg.Storage
	switch sc.Driver {
	case "local", "":
		l, err := storage.NewLocal(sc.Local.Dir, sc.Local.BaseURL)
		if err != nil {
			return fmt.Errorf("local storage: %w", err)
		}
		a.Images = l
	case "s3":
		s, err := storage.NewS3(ctx, storage.S3Options{
			Bucket:    sc.S3.Bucket,
			Region:    sc.S3.Region,
			Endpoint:  sc.S3.Endpoint,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
		})
		if err != nil {
			return fmt.Errorf("s3 storage: %w", err)
		}
		a.Images = s
	default:
		return fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	a.Log.Info("image storage ready", zap.String("driver", sc.Driver))
	return nil
}

func (a *App) maxImageBytes() int {
	mb := a.Cfg.Storage.MaxImageSizeMB
	if mb <= 0 {
		mb = 10
	}
	return mb << 20
}

// APIRegistry registers the modules served under /api/v1.
func (a *App) APIRegistry() *router.Registry {
	r := &router.Registry{}
	r.Register(
		handler.NewUserHandler(a.Users, a.JWT, a.Blocklist, a.Log),
		handler.NewRecipeHandler(a.Recipes, int64(a.maxImageBytes())),
		handler.NewTagHandler(a.Tags),
		handler.NewIngredientHandler(a.Ingredients),
	)
	return r
}

// AdminRegistry registers the modules served under /admin/v1.
func (a *App) AdminRegistry() *router.Registry {
	r := &router.Registry{}
	r.Register(handler.NewAdminHandler(a.DB, a.Users))
	return r
}

// Deps assembles router dependencies around mods.
func (a *App) Deps(mods *router.Registry) router.Deps {
	d := router.Deps{
		Log:         a.Log,
		DB:          a.DB,
		JWT:         a.JWT,
		Blocklist:   a.Blocklist,
		Limits:      a.Cfg.Limits,
		CORSOrigins: a.Cfg.App.HTTP.CORSOrigins,
		Modules:     mods,
	}
	sc := a.Cfg.Storage
	if (sc.Driver == "local" || sc.Driver == "") && strings.HasPrefix(sc.Local.BaseURL, "/") {
		d.MediaDir = sc.Local.Dir
		d.MediaURL = sc.Local.BaseURL
	}
	return d
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the process logger from cfg and routes the standard
// library logger through it. The returned func flushes and restores.
func NewLogger(cfg *config.Config) (*zap.Logger, func()) {
	f := cfg.Log.File
	l, sync := logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Enable:     f.Enable,
		Filename:   f.Filename,
		MaxSizeMB:  f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAgeDays: f.MaxAgeDays,
		Compress:   f.Compress,
	})
	restore := logger.RedirectStdLog(l)
	return l.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env)), func() {
		restore()
		sync()
	}
}

// BaseURL is a clickable address for startup logs.
func BaseURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + server.Addr(host, port)
}
