package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-zeen"
	"github.com/goliatone/go-zeen/activitymap"
	"github.com/goliatone/go-zeen/config"
	"github.com/goliatone/go-zeen/logging"
	"github.com/uptrace/bun"
)

const usage = `usage: zeen [serve|deploy|rollback] [flags]

  serve     run the HTTP server (default)
  deploy    apply migrations and seed roles, then exit
  rollback  roll back the last migration group, then exit
`

func main() {
	command, args := splitCommand(os.Args[1:])

	cfg, err := config.Load(config.Options{
		DotEnv: []string{".env"},
		Args:   args,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	backend, err := logging.New(os.Stdout, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := backend.Logger("ZEEN")
	logger.Debug("config: %s", cfg.Dump())

	ctx := context.Background()

	db, err := zeen.OpenDB(cfg.Persistence.Driver, cfg.Persistence.DSN)
	if err != nil {
		logger.Error("open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	switch command {
	case "deploy":
		if err := deploy(ctx, db, logger); err != nil {
			logger.Error("deploy: %v", err)
			os.Exit(1)
		}
		return
	case "rollback":
		group, err := zeen.Rollback(ctx, db)
		if err != nil {
			logger.Error("rollback: %v", err)
			os.Exit(1)
		}
		logger.Info("rolled back %s", group)
		return
	case "serve":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if cfg.Persistence.Migrate {
		if err := deploy(ctx, db, logger); err != nil {
			logger.Error("deploy: %v", err)
			os.Exit(1)
		}
	}

	repo := zeen.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		logger.Error("repositories: %v", err)
		os.Exit(1)
	}

	tokens := zeen.NewTokenService(cfg, backend.Logger("TOKN"))

	controller := zeen.NewController(repo, tokens,
		zeen.WithControllerLogger(backend.Logger("HTTP")),
		zeen.WithControllerNotifier(zeen.NewLogNotifier(backend.Logger("MAIL"), cfg.App.BaseURL).
			WithSubjectPrefix(cfg.Mail.SubjectPrefix).
			WithSender(cfg.Mail.Sender)),
		zeen.WithControllerActivitySink(activitySink(backend.Logger("ACTV"))),
		zeen.WithControllerAdminEmail(cfg.Auth.AdminEmail),
		zeen.WithControllerPagination(cfg.Pagination.FollowersPerPage, cfg.Pagination.PostsPerPage),
	)
	controller.Debug = cfg.App.Debug

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:           cfg.App.Name,
			UnescapePath:      true,
			EnablePrintRoutes: cfg.App.Debug,
			StrictRouting:     false,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
		}))
	})

	zeen.RegisterRoutes(srv.Router(), controller)

	logger.Info("listening on %s", cfg.App.Addr)
	go srv.Serve(cfg.App.Addr)

	sig := WaitExitSignal()
	logger.Info("received %s, shutting down", sig)
}

func deploy(ctx context.Context, db *bun.DB, logger zeen.Logger) error {
	group, err := zeen.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		logger.Info("no new migrations")
	} else {
		logger.Info("migrated to %s", group)
	}
	return zeen.NewRolesRepository(db).InsertRoles(ctx)
}

func activitySink(logger zeen.Logger) zeen.ActivitySink {
	return activitymap.Sink(func(_ context.Context, record activitymap.Normalized) error {
		logger.Info("%s %s", record.Channel, print.MaybePrettyJSON(record))
		return nil
	})
}

func splitCommand(args []string) (string, []string) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		return args[0], args[1:]
	}
	return "serve", args
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
