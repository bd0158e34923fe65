package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"signal-desk/internal/analytics"
	"signal-desk/internal/bot"
	"signal-desk/internal/command"
	"signal-desk/internal/config"
	"signal-desk/internal/conversation"
	"signal-desk/internal/export"
	"signal-desk/internal/handler"
	"signal-desk/internal/job"
	mcpserver "signal-desk/internal/mcp"
	"signal-desk/internal/pricing"
	"signal-desk/internal/render"
	"signal-desk/internal/store"
	"signal-desk/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "signal-desk/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	openStoreFunc          = store.Open
	newBotFunc             = bot.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Signal Desk API
// @version         1.0
// @description     Click tracking and stats for the signal publishing bot.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// Open the document store
	st, err := openStoreFunc(store.NewFilePersistence(cfg.StorePath), tracer, loadSeedLinks(cfg.SeedLinksPath))
	if err != nil {
		log.Fatalf("failed to open store at %s: %v", cfg.StorePath, err)
	}

	rdb := initRedis(cfg.RedisURL)
	aggregator := analytics.NewAggregator(st, rdb, tracer)

	// Telegram bot doubles as the channel publisher, so it exists before the
	// conversation manager that depends on it.
	tgBot, err := newBotFunc(cfg, tracer)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	exporter := export.NewSheetExporter(cfg.SheetWebhookURL, tracer)

	if tgBot != nil {
		flow := conversation.NewManager(
			pricing.NewEngine(),
			st,
			tgBot,
			exporter,
			aggregator,
			conversation.Config{
				ConfirmPhrase:    cfg.ConfirmPhrase,
				ConfirmTokens:    cfg.ConfirmTokens,
				DefaultSender:    cfg.DefaultSender,
				TradeURLBase:     cfg.TradeURLBase,
				RequireSavedLink: cfg.RequireSavedLink,
				URLs: render.URLs{
					Challenge:   cfg.ChallengeURL,
					Leaderboard: cfg.LeaderboardURL,
				},
			},
			tracer,
		)
		tgBot.Register(flow, st, aggregator, command.NewParser(cfg.Senders))
		go tgBot.Start()
		defer tgBot.Stop()
	}

	// Daily member-count snapshot (no-op counter when the bot is down)
	var counter job.MemberCounter
	if tgBot != nil {
		counter = tgBot
	}
	snapshot := job.NewMemberSnapshot(tracer, counter, st, cfg.MemberSnapshotHour)
	go snapshot.Start(ctx)

	if cfg.MCPEnabled {
		srv := mcpserver.NewServer(tracer, st, aggregator, mcpserver.ServerConfig{})
		go func() {
			if err := mcpserver.Run(ctx, srv); err != nil {
				log.Printf("mcp server stopped: %v", err)
			}
		}()
	}

	// Click tracker and stats API
	h := handler.New(tracer, st, aggregator)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("signal-desk"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
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

// loadSeedLinks reads an optional JSON object of ticker -> URL used to seed
// the store on first run. Missing or malformed files only log.
func loadSeedLinks(path string) map[string]string {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("seed links %s not loaded: %v", path, err)
		return nil
	}
	links := make(map[string]string)
	if err := json.Unmarshal(raw, &links); err != nil {
		log.Printf("seed links %s not parsed: %v", path, err)
		return nil
	}
	return links
}

func initRedis(url string) *redis.Client {
	if url == "" {
		log.Println("REDIS_URL not set, analytics cache disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL, analytics cache disabled: %v", err)
		return nil
	}
	return redis.NewClient(opts)
}
