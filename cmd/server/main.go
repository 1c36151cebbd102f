package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/cache"
	"github.com/pageturn/bookclub-chat/internal/client"
	"github.com/pageturn/bookclub-chat/internal/config"
	"github.com/pageturn/bookclub-chat/internal/domain"
	"github.com/pageturn/bookclub-chat/internal/handler"
	"github.com/pageturn/bookclub-chat/internal/hub"
	"github.com/pageturn/bookclub-chat/internal/pipeline"
	"github.com/pageturn/bookclub-chat/internal/relay"
	"github.com/pageturn/bookclub-chat/internal/repository"
	"github.com/pageturn/bookclub-chat/internal/service"
	"github.com/pageturn/bookclub-chat/internal/storage"
	"github.com/pageturn/bookclub-chat/pkg/database"
	"github.com/pageturn/bookclub-chat/pkg/log"
	"github.com/pageturn/bookclub-chat/pkg/middleware"
	"github.com/pageturn/bookclub-chat/pkg/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}

	messageRepo := repository.NewGormMessageRepository(db)
	voteRepo := repository.NewGormVoteRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	announcementRepo := repository.NewGormAnnouncementRepository(db)
	scheduleRepo := repository.NewGormScheduleRepository(db)
	calendarRepo := repository.NewGormCalendarRepository(db)
	hideRepo := repository.NewGormHideRepository(db)

	// Bus
	producer, err := bus.NewConfluentProducer(cfg.Kafka)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer producer.Close()
	events := bus.NewEventPublisher(producer, cfg.Kafka.EventsTopic)

	// History cache, best effort: the store stays authoritative.
	var historyCache cache.HistoryCache
	if redisCache, err := cache.NewRedisHistoryCache(cfg.Redis); err != nil {
		l.Warn().Err(err).Msg("history cache unavailable, reads go to the database")
	} else {
		historyCache = redisCache
		defer redisCache.Close()
	}

	// Collaborators
	assets, err := newAssetResolver(ctx, cfg.Storage)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize asset storage")
	}
	identity := client.NewHTTPIdentityDirectory(cfg.Identity)
	tokens := token.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenLifetime)

	// Pipeline and services
	sendPipeline := pipeline.New(messageRepo, producer, cfg.Kafka.MessagesTopic)
	roomService := service.NewRoomService(roomRepo, messageRepo, events)
	messageService := service.NewMessageService(sendPipeline, roomRepo, messageRepo, hideRepo,
		historyCache, identity, assets, service.HistoryOptions{
			DefaultLimit: cfg.History.DefaultLimit,
			MaxLimit:     cfg.History.MaxLimit,
			CacheTTL:     cfg.History.CacheTTL,
			AssetExpiry:  cfg.History.AssetExpiry,
		})
	announcementService := service.NewAnnouncementService(announcementRepo, roomRepo, sendPipeline, events)
	scheduleService := service.NewScheduleService(scheduleRepo, calendarRepo, roomRepo, sendPipeline, events)
	pollService := service.NewPollService(messageRepo, voteRepo, roomRepo, sendPipeline, events)

	// Session registry and broadcast relay
	sessions := hub.New()
	go sessions.Run(ctx)

	broadcastRelay := relay.New(sessions)
	consumer, err := bus.NewConsumer(cfg.Kafka, cfg.Kafka.MessagesTopic, broadcastRelay.Handle)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	go func() {
		if err := consumer.Run(ctx); err != nil {
			l.Error().Err(err).Msg("broadcast relay stopped")
			cancel()
		}
	}()

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(log.L()))

	auth := middleware.NewAuthMiddleware(tokens)
	ws := handler.NewWSHandler(sessions, roomRepo, tokens, cfg.WebSocket)
	h := handler.New(roomService, messageService, announcementService, scheduleService, pollService, ws)
	h.RegisterRoutes(router, auth)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		l.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		l.Info().Msg("shutting down after component failure")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("http shutdown failed")
	}
	if err := consumer.Close(); err != nil {
		l.Error().Err(err).Msg("consumer close failed")
	}

	l.Info().Msg("server stopped")
}

func newAssetResolver(ctx context.Context, cfg storage.Config) (storage.AssetResolver, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3Resolver(ctx, cfg.S3)
	default:
		return storage.NewLocalResolver(cfg.Local)
	}
}
