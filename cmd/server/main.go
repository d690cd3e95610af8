package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "stagecast/internal/handlers/http"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
	"stagecast/internal/core/services"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/internal/infrastructure/monitoring"
	"stagecast/internal/infrastructure/realtime"
	"stagecast/internal/infrastructure/repositories"
	"stagecast/pkg/config"
	"stagecast/pkg/logger"
	"stagecast/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()
	sugar := log.Sugar()

	tracer, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Persistence: Redis when configured, in-memory otherwise.
	repos := repositories.NewFactory(cfg, log)
	defer repos.Close()

	collector := monitoring.NewPrometheusCollector()
	stats := services.NewMetricsService(collector)

	hub := realtime.NewHub(log, collector)

	scheduler := services.NewAgentScheduler(
		services.SchedulerConfig{
			Agents: []ports.AgentProfile{
				{ID: domain.AgentDirector, Interval: cfg.Agents.DirectorInterval},
				{ID: domain.AgentModerator, Interval: cfg.Agents.ModeratorInterval},
			},
			SuggestionTimeout: cfg.Agents.SuggestionTimeout,
		},
		services.NewRuleTableSource(time.Now().UnixNano()),
		repos.Audit,
		hub,
		stats,
		sugar,
	)

	roomSvc := services.NewRoomService(repos.Streams, scheduler, stats, sugar)
	directorSvc := services.NewDirectorService(repos.Streams, hub, sugar)
	moderationGate := services.NewModerationService(
		services.NewBannedTermsPolicy(cfg.Moderation.BannedTerms),
		cfg.Moderation.Timeout,
		cfg.Moderation.FailOpen,
		sugar,
	)
	ledgerSvc := services.NewLedgerService(
		services.LedgerConfig{
			CreatorShareBps: cfg.Ledger.CreatorShareBps,
			Currency:        cfg.Ledger.Currency,
		},
		repos.Ledger,
		hub,
		stats,
		sugar,
	)
	authSvc := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	wsCfg := realtime.WSConfig{
		PingInterval:  cfg.Realtime.PingInterval,
		PongTimeout:   cfg.Realtime.PongTimeout,
		WriteTimeout:  cfg.Realtime.WriteTimeout,
		SendQueueSize: cfg.Realtime.SendQueueSize,
	}
	if cfg.RateLimiting.Enabled {
		wsCfg.MessagesPerSecond = cfg.RateLimiting.WebSocket.MessagesPerSecond
		wsCfg.MessageBurst = cfg.RateLimiting.WebSocket.Burst
		wsCfg.MaxMessageBytes = cfg.RateLimiting.WebSocket.MaxMessageSizeBytes
	}

	wsServer := realtime.NewWSServer(
		wsCfg,
		hub, roomSvc, directorSvc, moderationGate, ledgerSvc, stats, authSvc, log,
	)

	router := buildRouter(cfg, log, authSvc, roomSvc, ledgerSvc, repos.Audit, stats, wsServer)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server starting", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if cfg.Monitoring.PrometheusEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
			Handler: mux,
		}
		go func() {
			log.Info("metrics server starting", zap.Int("port", cfg.Monitoring.PrometheusPort))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	scheduler.Shutdown()
	hub.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.Error("metrics server shutdown failed", zap.Error(err))
		}
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

func buildRouter(
	cfg *config.Config,
	log *zap.Logger,
	authSvc services.AuthService,
	roomSvc ports.RoomService,
	ledgerSvc ports.LedgerService,
	audit ports.AuditRepository,
	stats *services.MetricsService,
	wsServer *realtime.WSServer,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))

	if cfg.RateLimiting.Enabled {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerSecond = cfg.RateLimiting.HTTP.RequestsPerSecond
		rlCfg.Burst = cfg.RateLimiting.HTTP.Burst
		router.Use(middleware.RateLimitMiddleware(rlCfg))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	router.GET("/ws", wsServer.HandleConnection)

	requireAuth := middleware.AuthMiddleware(authSvc)

	api := router.Group("/api/v1")
	apphttp.NewAuthHandler(authSvc).RegisterRoutes(api)
	apphttp.NewStreamHandler(roomSvc, audit, stats).RegisterRoutes(api, requireAuth)
	apphttp.NewWalletHandler(ledgerSvc).RegisterRoutes(api, requireAuth)

	return router
}
