package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"farmflow/internal/auth"
	"farmflow/internal/config"
	cronrunner "farmflow/internal/cron"
	"farmflow/internal/db"
	"farmflow/internal/handler"
	"farmflow/internal/ledger"
	"farmflow/internal/logger"
	"farmflow/internal/notify"
	"farmflow/internal/oracle"
	"farmflow/internal/query"
	gormrepository "farmflow/internal/repository/gorm"

	_ "farmflow/docs"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("FF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FF_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	var cache *query.Cache
	hub := notify.NewHub(logger)
	sinks := notify.Fanout{&notify.LogNotifier{Logger: logger}, hub}
	if cfg.Cache.Enabled {
		cache = query.NewCache(cfg.Cache)
		sinks = append(sinks, &query.Invalidator{Cache: cache})
	}
	var amqpPub *notify.AMQPPublisher
	if cfg.AMQP.Enabled {
		amqpPub = notify.NewAMQPPublisher(cfg.AMQP, logger)
		defer amqpPub.Close()
		sinks = append(sinks, amqpPub)
	}

	ledgerSvc := ledger.New(store, sinks, logger, cfg.Ledger)
	if err := ledgerSvc.Seed(context.Background()); err != nil {
		logger.Warn("catalog seed failed", zap.Error(err))
	}
	querySvc := &query.Service{
		Repo:      store,
		Cache:     cache,
		Authority: cfg.Ledger.Authority,
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if !strings.EqualFold(cfg.App.Env, "dev") {
			logger.Fatal("auth.jwt_secret must be set outside dev")
		}
		logger.Warn("using built-in dev jwt secret")
		secret = "farmflow-dev-secret"
	}
	tokenJWT := auth.JWT{Secret: []byte(secret), TokenTTL: cfg.Auth.TokenTTL}
	authed := auth.Middleware(tokenJWT)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequestIDMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)

	authHandler := &handler.AuthHandler{JWT: tokenJWT}
	authHandler.Register(engine)
	cropHandler := &handler.CropHandler{Ledger: ledgerSvc, Query: querySvc}
	cropHandler.Register(engine, authed)
	marketHandler := &handler.MarketHandler{Ledger: ledgerSvc, Query: querySvc}
	marketHandler.Register(engine, authed)
	insuranceHandler := &handler.InsuranceHandler{Ledger: ledgerSvc, Query: querySvc}
	insuranceHandler.Register(engine, authed)
	reportHandler := &handler.ReportHandler{Ledger: ledgerSvc, Query: querySvc}
	reportHandler.Register(engine, authed)
	eventHandler := &handler.EventHandler{Hub: hub, Logger: logger}
	eventHandler.Register(engine, authed)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && cfg.Oracle.Enabled {
		refresher := &oracle.Refresher{
			Repo:   store,
			Ledger: ledgerSvc,
			Client: &oracle.Client{
				HTTP:           &http.Client{Timeout: cfg.Oracle.Timeout},
				WeatherBaseURL: cfg.Oracle.WeatherBaseURL,
				SoilBaseURL:    cfg.Oracle.SoilBaseURL,
			},
			Logger: logger,
		}
		_, err := cronRunner.Add(cfg.Cron.RiskRefresh, func(ctx context.Context) {
			if err := refresher.Refresh(ctx); err != nil {
				logger.Warn("cron risk refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register risk refresh failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
