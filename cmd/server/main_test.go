package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signal-desk/internal/bot"
	"signal-desk/internal/config"
	"signal-desk/internal/store"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(t *testing.T) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitTracer := initTracerFunc
	origOpenStore := openStoreFunc
	origNewBot := newBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	storePath := filepath.Join(t.TempDir(), "store.json")

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{StorePath: storePath, HTTPPort: 8080}
	}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	openStoreFunc = func(port store.Persistence, tracer trace.Tracer, seedLinks map[string]string) (*store.Store, error) {
		return store.Open(store.NewFilePersistence(storePath), tracer, seedLinks)
	}
	newBotFunc = func(*config.Config, trace.Tracer) (*bot.Bot, error) { return nil, nil }
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initTracerFunc = origInitTracer
		openStoreFunc = origOpenStore
		newBotFunc = origNewBot
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}

func TestLoadSeedLinks(t *testing.T) {
	if links := loadSeedLinks(""); links != nil {
		t.Fatalf("empty path must yield nil, got %v", links)
	}
	if links := loadSeedLinks(filepath.Join(t.TempDir(), "missing.json")); links != nil {
		t.Fatalf("missing file must yield nil, got %v", links)
	}

	path := filepath.Join(t.TempDir(), "links.json")
	if err := os.WriteFile(path, []byte(`{"BTC":"https://example.com/btc"}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	links := loadSeedLinks(path)
	if links["BTC"] != "https://example.com/btc" {
		t.Fatalf("unexpected links %v", links)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if links := loadSeedLinks(bad); links != nil {
		t.Fatalf("malformed file must yield nil, got %v", links)
	}
}

func TestInitRedis(t *testing.T) {
	if rdb := initRedis(""); rdb != nil {
		t.Fatal("empty URL must disable the cache")
	}
	if rdb := initRedis("://broken"); rdb != nil {
		t.Fatal("unparseable URL must disable the cache")
	}
	rdb := initRedis("redis://localhost:6379/0")
	if rdb == nil {
		t.Fatal("valid URL must yield a client")
	}
	rdb.Close()
}
