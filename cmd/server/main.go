package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinpricebot/internal/bot"
	"coinpricebot/internal/cache"
	"coinpricebot/internal/config"
	"coinpricebot/internal/handler"
	"coinpricebot/internal/job"
	"coinpricebot/internal/provider"
	"coinpricebot/internal/registry"
	"coinpricebot/internal/service"
	"coinpricebot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "coinpricebot/docs"
)

var version = "dev"

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	loadRegistryFunc       = registry.Load
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newQuoteServiceFunc    = service.NewQuoteService
	newRatePollerFunc      = job.NewRatePoller
	startPollerFunc        = func(p *job.RatePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Coin Price Bot API
// @version         1.0
// @description     Crypto price, burn, and balance aggregation service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Redis (optional fiat rate mirror)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	redisClient := initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Load the currency registry
	reg, err := loadRegistryFunc(cfg.RegistryPath)
	if err != nil {
		log.Fatalf("failed to load currency registry: %v", err)
	}

	// Providers and services
	primary := provider.NewCoinMarketCapProvider(tracer, cfg.CoinMarketCapAPIKey)
	secondary := provider.NewPancakeSwapProvider(tracer)
	balances := provider.NewBscScanProvider(tracer, cfg.BscScanAPIKey)

	var mirror service.RedisClient
	if redisClient != nil {
		mirror = redisClient
	}
	rates := service.NewRateConverter(tracer, provider.NewFrankfurterRateSource(tracer), mirror)

	quoteCache := cache.NewQuoteCache(time.Duration(cfg.QuoteCacheTTLSecs) * time.Second)
	quoteService := newQuoteServiceFunc(tracer, reg, primary, secondary, balances, rates, quoteCache)

	// Start rate poller (background goroutine, stopped by ctx cancel)
	poller := newRatePollerFunc(tracer, rates, cfg.RateRefreshSecs)
	startPollerFunc(poller, ctx)

	// Start Telegram bot
	responder := bot.NewResponder(quoteService, reg, cfg.AdminUserID, version)
	startTelegramBotFunc(cfg.TelegramBotToken, responder)

	// Create handlers and routes
	h := newHandlerFunc(tracer, quoteService, reg)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("coinpricebot"))
	r.Use(handler.APIKeyAuth(cfg.HTTPAPIKey))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
