// Package server initializes and runs the API server: configuration,
// database, schema migrations, the payment gateway client, and the HTTP
// endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/astrotechlabs/astrotech-api/internal/logging"
	"github.com/astrotechlabs/astrotech-api/internal/server/config"
	"github.com/astrotechlabs/astrotech-api/internal/server/gateway"
	"github.com/astrotechlabs/astrotech-api/internal/server/httpapi"
	"github.com/astrotechlabs/astrotech-api/internal/server/repositories/repomanager"
	"github.com/astrotechlabs/astrotech-api/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	logger.Debug(context.Background(), "configuration loaded",
		"endpoint", cfg.EndpointAddr, "gateway", cfg.GatewayBaseEndpoint)

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	gw := gateway.NewRazorpayGateway(cfg.GatewayBaseEndpoint, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)

	userService := services.NewUserService(db, m, cfg)
	orderService := services.NewOrderService(db, m, gw, cfg)
	paymentService := services.NewPaymentService(db, m, cfg)
	consultationService := services.NewConsultationService(db, m)
	reportService := services.NewReportService(cfg)

	srv := httpapi.NewServer(cfg, logger,
		userService, orderService, paymentService, consultationService, reportService)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
