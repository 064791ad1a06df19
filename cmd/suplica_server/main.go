package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gregory-j-wilson/Suplica/internal/config"
	"github.com/gregory-j-wilson/Suplica/internal/database"
	"github.com/gregory-j-wilson/Suplica/internal/repository"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	logger   *slog.Logger
	cfg      *config.AppConfig
	dbm      *database.DatabaseManager
	codes    repository.CodeRepository
	tokenKey []byte
	tokenTTL time.Duration
}

func NewApp(cfg *config.AppConfig, db *gorm.DB) *App {
	app := &App{
		logger:   slog.Default().With("logger", "app"),
		cfg:      cfg,
		dbm:      database.New(db),
		codes:    repository.NewFileCodesRepo(cfg.CodesFile(), cfg.RegistrationCodes()),
		tokenKey: []byte(cfg.TokenKey()),
		tokenTTL: cfg.TokenTTL(),
	}

	if len(app.tokenKey) == 0 {
		app.logger.Warn("no token_key set, using a random one")
		app.tokenKey = randomKey()
	}

	return app
}

func openDB(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	return db, nil
}

func (app *App) Run(ctx context.Context) error {
	if err := app.dbm.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := app.codes.Start(); err != nil {
		app.logger.Error("can't watch codes file", slog.Any("error", err))
	}

	defer app.codes.Stop()

	api := NewHTTPAPI(app, app.cfg.APIAddr())

	errCh := make(chan error, 1)

	go func() {
		app.logger.Info("listening " + api.Address())

		if cert, key := app.cfg.String("ssl.cert"), app.cfg.String("ssl.key"); cert != "" && key != "" {
			errCh <- api.ListenTLS(cert, key)
		} else {
			errCh <- api.Listen()
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("exiting...")

	return api.Shutdown(5 * time.Second)
}

func main() {
	fmt.Printf("version %s %s\n", gitRevision, gitBranch)

	conf := flag.String("config", "suplica_server.yml", "name of config file")
	debug := flag.Bool("debug", false, "debug")
	flag.Parse()

	var h slog.Handler
	if *debug {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	slog.SetDefault(slog.New(h))

	cfg := config.NewServerConfig()
	cfg.LoadEnv(config.ServerEnvPrefix)

	if !cfg.Load(*conf) {
		slog.Warn("no config file, using defaults", slog.String("file", *conf))
	}

	db, err := openDB(cfg.DB(), *debug)
	if err != nil {
		slog.Error("db error", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewApp(cfg, db).Run(ctx); err != nil {
		slog.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}
