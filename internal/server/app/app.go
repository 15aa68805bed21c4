package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"healthvault/internal/server/config"
	"healthvault/internal/server/filestore"
	"healthvault/internal/server/httpapi"
	"healthvault/internal/server/repository/mongo"
	"healthvault/internal/server/repository/sqlite"
	"healthvault/internal/server/service"
)

type App struct {
	version   string
	buildDate string
	logger    *zap.Logger
	server    *http.Server
	repoClose io.Closer
}

func New(version, buildDate string, logger *zap.Logger) (*App, error) {
	cfg := config.Load()

	var (
		repo service.Repository
		clos io.Closer
	)
	switch cfg.DBDriver {
	case "sqlite":
		r, err := sqlite.New(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo, clos = r, r
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		r, err := mongo.New(ctx, cfg.DatabaseDSN, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		repo, clos = r, r
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}

	files, err := filestore.NewLocal(cfg.FileStoreDir)
	if err != nil {
		_ = clos.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	services := service.NewServices(repo, files, cfg)
	router := httpapi.NewRouter(services, logger, cfg.MaxRequestBytes)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{version: version, buildDate: buildDate, logger: logger, server: server, repoClose: clos}, nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = a.repoClose.Close() }()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server error", zap.Error(err))
		}
	}()

	a.logger.Info("healthvault server listening",
		zap.String("version", a.version),
		zap.String("build_date", a.buildDate),
		zap.String("addr", a.server.Addr))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
