package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/bot"
	"github.com/pizza-nz/lunch-bot/internal/cache"
	"github.com/pizza-nz/lunch-bot/internal/config"
	"github.com/pizza-nz/lunch-bot/internal/db"
	"github.com/pizza-nz/lunch-bot/internal/db/repository"
	"github.com/pizza-nz/lunch-bot/internal/deadline"
	"github.com/pizza-nz/lunch-bot/internal/logging"
	"github.com/pizza-nz/lunch-bot/internal/router"
	"github.com/pizza-nz/lunch-bot/internal/service"
	"github.com/pizza-nz/lunch-bot/internal/session"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
	"github.com/pizza-nz/lunch-bot/internal/sheet/gsheets"
	"github.com/pizza-nz/lunch-bot/internal/transport/telegram"
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Failed to load timezone: %v", err)
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the backing store
	store, closeStore, err := openStore(ctx, cfg, loc, logger)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer closeStore()

	dl := config.NewDeadline(cfg.Order.DeadlineHour, cfg.Order.DeadlineMinute)
	tableCache := cache.New(cache.Options{
		TTL:     cfg.CacheTTL(),
		Offline: cfg.Order.LocalMode,
	}, logger)
	repos := repository.NewRepositories(store, tableCache, repository.Options{
		Location: loc,
		Deadline: dl,
	}, logger)
	repos.Settings.Load(ctx)

	// Initialize session recovery
	recovery, closeRecovery, err := openRecovery(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer closeRecovery()
	sessions := session.NewStore(recovery, logger)
	go sessions.Run(ctx, sweepInterval)

	// Initialize WebSocket hub
	hub := websockets.NewHub(logger)
	go hub.Run(ctx)

	policy := deadline.New(dl, loc, cfg.DeadlineBypassed())
	employees := service.NewEmployeeService(repos, cfg.Admin.TelegramID)
	menu := service.NewMenuService(repos, hub, logger)
	orders := service.NewOrderService(repos, policy, hub, logger)
	controller := bot.NewController(employees, menu, orders, sessions, logger)

	var server *http.Server
	if cfg.Server.Address != "" {
		auth := service.NewAuthService(cfg.Admin.PasswordHash, service.JWTConfig{
			Secret:    cfg.JWT.Secret,
			ExpiresIn: cfg.JWT.ExpiresIn,
		})
		server = &http.Server{
			Addr: cfg.Server.Address,
			Handler: router.New(router.Services{
				Auth:   auth,
				Menu:   menu,
				Orders: orders,
			}, hub, cfg.Server.AllowedOrigins, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Start server in a goroutine
		go func() {
			logger.Infof("Admin API listening on %s", cfg.Server.Address)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Admin API stopped: %v", err)
			}
		}()
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatalf("Failed to connect to Telegram: %v", err)
	}
	logger.Infof("Authorized as @%s (deadline %s, bypass %v)", api.Self.UserName, policy, policy.Bypassed())

	poller := telegram.NewPoller(api, controller, telegram.Options{
		PollTimeout: cfg.Telegram.PollTimeout,
	}, logger)

	runErr := poller.Run(ctx)
	stop()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Admin API forced to shutdown: %v", err)
		}
	}

	if errors.Is(runErr, telegram.ErrInstanceConflict) {
		logger.Error("Another instance of the bot is already running with this token. " +
			"Stop the other process (or revoke the token via @BotFather) and start again.")
		closeRecovery()
		closeStore()
		os.Exit(1)
	}

	logger.Info("Bot exited properly")
}

// openStore connects the configured table store and makes sure every table
// exists.
func openStore(ctx context.Context, cfg *config.Config, loc *time.Location, logger *logrus.Logger) (sheet.Store, func(), error) {
	now := time.Now().In(loc)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("Local mode: using the in-memory store with seed data")
		store := sheet.NewMemory()
		if err := repository.SeedLocal(ctx, store, cfg.Admin.TelegramID, now, logger); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.DriverPostgres:
		database, err := db.NewPostgres(cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(cfg.Database, logger); err != nil {
			database.Close()
			return nil, nil, err
		}
		store := db.NewTableStore(database.DB)
		if err := repository.EnsureSchema(ctx, store, now, logger); err != nil {
			database.Close()
			return nil, nil, err
		}
		return store, func() { database.Close() }, nil

	default:
		store, err := gsheets.New(ctx, cfg.Sheets, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureSchema(ctx, store, now, logger); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// openRecovery picks redis when configured and the in-memory store otherwise.
func openRecovery(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (session.Recovery, func(), error) {
	if cfg.Redis.URL == "" {
		mem := session.NewMemoryRecovery(session.RecoveryTTL, nil, logger)
		go mem.Run(ctx, sweepInterval)
		return mem, func() {}, nil
	}

	client, err := db.ConnectRedis(ctx, cfg.Redis.URL, logger)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisRecovery(client, session.RecoveryTTL), func() { client.Close() }, nil
}
