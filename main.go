package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"quizclash/config"
	"quizclash/handlers"
	"quizclash/logger"
	"quizclash/middleware"
	"quizclash/models"
	"quizclash/routes"
	"quizclash/services"
	"quizclash/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer zlog.Sync()

	db, err := config.InitDB(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Match{},
		&models.MatchQuestion{},
		&models.MatchOption{},
		&models.MatchAnswer{},
		&models.PlayerStats{},
	); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient := config.InitRedis(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.NewGormStore(db)
	notifier := services.NewRedisNotifier(redisClient, zlog)
	generator := services.NewGeminiGenerator(cfg.GeneratorBaseURL, cfg.GeneratorAPIKey, cfg.GeneratorModel, cfg.OptionCount)

	matchService := services.NewMatchService(store, generator, notifier, zlog, cfg.OptionCount)
	settler := services.NewSettler(store, notifier, zlog)
	engine := services.NewEngine(store, settler, notifier, zlog,
		cfg.TickInterval, time.Duration(cfg.CountdownSeconds)*time.Second)

	hub := services.NewHub(redisClient, notifier, zlog)
	go hub.Run()
	go hub.Listen(ctx)

	if err := engine.Start(); err != nil {
		zlog.Fatal("failed to start match engine", zap.Error(err))
	}
	defer engine.Stop()

	matchHandler := handlers.NewMatchHandler(matchService)

	router := gin.Default()
	router.Use(middleware.CORS())
	routes.SetupRoutes(router, matchHandler, matchService, hub, cfg.JWTSecret, zlog)

	addr := cfg.BindAddress + ":" + cfg.Port
	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := router.Run(addr); err != nil {
			zlog.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
}
