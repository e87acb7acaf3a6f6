package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/raffle-system/config"
	"github.com/Dosada05/raffle-system/db"
	"github.com/Dosada05/raffle-system/handlers"
	"github.com/Dosada05/raffle-system/live"
	"github.com/Dosada05/raffle-system/repositories"
	api "github.com/Dosada05/raffle-system/routes"
	"github.com/Dosada05/raffle-system/services"
	"github.com/Dosada05/raffle-system/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const schedulerInterval = 30 * time.Second // How often the scheduler runs

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	counterRepo := repositories.NewPostgresTicketCounterRepository(dbConn)
	prizeRepo := repositories.NewPostgresPrizeRepository(dbConn)
	winningTicketRepo := repositories.NewPostgresWinningTicketRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	productRepo := repositories.NewPostgresProductRepository(dbConn)
	walletRepo := repositories.NewPostgresWalletRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, walletRepo)
	productService := services.NewProductService(productRepo, cloudflareUploader)
	prizeService := services.NewPrizeService(prizeRepo, competitionRepo, productRepo, winningTicketRepo)
	walletService := services.NewWalletService(dbConn, walletRepo, userRepo)

	competitionService := services.NewCompetitionService(
		dbConn, // Pass dbConn for transaction management
		competitionRepo,
		prizeRepo,
		winningTicketRepo,
		cloudflareUploader,
		logger,
	)

	winningTicketService := services.NewWinningTicketService(
		dbConn,
		competitionRepo,
		prizeRepo,
		winningTicketRepo,
		productRepo,
		logger,
	)

	purchaseService := services.NewPurchaseService(
		dbConn,
		userRepo,
		competitionRepo,
		counterRepo,
		entryRepo,
		winningTicketRepo,
		prizeRepo,
		walletRepo,
		wsHub,
		logger,
	)
	logger.Info("Services initialized")

	// Запуск планировщика автоматического обновления статусов конкурсов
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("Competition status update scheduler started", slog.Duration("interval", schedulerInterval))

		// Run once immediately at startup, then on ticker
		if err := competitionService.AutoUpdateCompetitionStatusesByDates(context.Background()); err != nil {
			logger.Error("Scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := competitionService.AutoUpdateCompetitionStatusesByDates(context.Background()); err != nil {
				logger.Error("Scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	competitionHandler := handlers.NewCompetitionHandler(competitionService)
	prizeHandler := handlers.NewPrizeHandler(prizeService)
	winningTicketHandler := handlers.NewWinningTicketHandler(winningTicketService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	productHandler := handlers.NewProductHandler(productService)
	walletHandler := handlers.NewWalletHandler(walletService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		competitionHandler,
		prizeHandler,
		winningTicketHandler,
		purchaseHandler,
		productHandler,
		walletHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			// If shutdown fails, force close.
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
