package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"go.uber.org/zap"

	"recipe-api/internal/app"
	"recipe-api/internal/core/config"
	"recipe-api/internal/core/server"
	"recipe-api/internal/transport/http/router"
)

const usage = `usage:
  admin                                        serve /admin/v1
  admin createsuperuser -email E -password P   create a superuser and exit`

func main() {
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := app.NewLogger(cfg)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close", zap.Error(err))
		}
	}()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "createsuperuser":
			if err := createSuperuser(ctx, a, os.Args[2:]); err != nil {
				log.Error("createsuperuser failed", zap.Error(err))
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
	}

	r := router.NewAdminEngine(a.Deps(a.AdminRegistry()))

	h := cfg.App.Admin
	srv := server.BuildServer(server.Addr(h.Host, h.Port), r, 5*time.Second, 10*time.Second, 60*time.Second, log)

	base := app.BaseURL(h.Host, h.Port)
	log.Info("admin api",
		zap.String("open", base),
		zap.String("health", base+"/health"),
		zap.String("admin_v1", base+"/admin/v1"),
	)
	if err := server.Run(ctx, srv, log, "admin api", 10*time.Second); err != nil {
		log.Error("admin api failed", zap.Error(err))
	}
}

func createSuperuser(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	email := fs.String("email", "", "superuser email")
	password := fs.String("password", "", "superuser password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.Users.CreateSuperuser(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.Log.Info("superuser created", zap.Uint("id", u.ID), zap.String("email", u.Email))
	return nil
}
