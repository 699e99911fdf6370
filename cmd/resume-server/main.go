package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/goliatone/go-resume/adapters/browser"
	exportpdf "github.com/goliatone/go-resume/adapters/pdf"
	repositorybun "github.com/goliatone/go-resume/adapters/repository/bun"
	exportrouter "github.com/goliatone/go-resume/adapters/router"
	storefs "github.com/goliatone/go-resume/adapters/store/fs"
	resumetemplate "github.com/goliatone/go-resume/adapters/template"
	"github.com/goliatone/go-resume/export"
	"github.com/goliatone/go-resume/internal/config"
	"github.com/goliatone/go-resume/internal/logging"
	"github.com/goliatone/go-resume/preview"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.New("resume", cfg.Verbose)

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS value.
	_, _ = maxprocs.Set(maxprocs.Logger(log.Debugf))

	if err := run(cfg, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// App holds the wired services of the server.
type App struct {
	DB       *bun.DB
	Resumes  *repositorybun.Repository
	Exports  export.Service
	Previews *preview.Service
	Logger   export.Logger
}

func run(cfg *config.Config, log export.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Seed != "" {
		seeded, err := seedResume(ctx, app.Resumes, cfg.Seed)
		if err != nil {
			return fmt.Errorf("seed %s: %w", cfg.Seed, err)
		}
		log.Infof("seeded resume %s (%s)", seeded.ID, seeded.Title)
	}

	srv := router.NewFiberAdapter(fiberAppInitializer())
	exportrouter.NewHandler(exportrouter.Config{
		Exports:      app.Exports,
		Previews:     app.Previews,
		BasePath:     cfg.Server.BasePath,
		ArtifactPath: cfg.Server.ArtifactPath,
		Logger:       log,
	}).RegisterRoutes(srv.Router())

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- srv.Serve(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewApp opens the database and wires the export and preview services.
func NewApp(ctx context.Context, cfg *config.Config, log export.Logger) (*App, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if cfg.Database.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	resumes := repositorybun.New(db)
	if err := resumes.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	templates, err := resumetemplate.New(cfg.Template)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	resolver := browser.NewResolver(cfg.Browser.Path, cfg.Browser.Download)
	resolver.Logger = log

	engine := &exportpdf.ChromiumEngine{
		Resolver:     resolver,
		Headless:     cfg.Browser.Headless,
		Timeout:      cfg.RenderTimeout(),
		Args:         cfg.Browser.Args,
		Layout:       cfg.PageLayout(),
		BlockRemote:  cfg.Browser.BlockRemote,
		MaxHTMLBytes: cfg.Browser.MaxHTMLBytes,
		Logger:       log,
	}

	store := storefs.NewStore(cfg.Storage.Root, cfg.Storage.BaseURL)

	return &App{
		DB:      db,
		Resumes: resumes,
		Exports: export.NewService(export.ServiceConfig{
			Resumes:   resumes,
			Templates: templates,
			Engine:    engine,
			Store:     store,
			Logger:    log,
		}),
		Previews: preview.NewService(preview.Config{
			Resumes:   resumes,
			Templates: templates,
			Engine:    engine,
			Sessions:  preview.NewManager(),
			Logger:    log,
		}),
		Logger: log,
	}, nil
}

// Close releases the database.
func (a *App) Close() {
	if a == nil || a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Errorf("close database: %v", err)
	}
}

func fiberAppInitializer() func(*fiber.App) *fiber.App {
	return func(*fiber.App) *fiber.App {
		fiberApp := fiber.New(fiber.Config{
			AppName: "Resume Export",
		})

		fiberApp.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		}))
		fiberApp.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Content-Type,Authorization",
		}))

		return fiberApp
	}
}
