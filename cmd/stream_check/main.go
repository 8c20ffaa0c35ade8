package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"streamchat/internal/chat"
	"streamchat/internal/config"
)

// stream_check corre escenarios de punta a punta contra un proxy levantado.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	proxyURL := flag.String("proxy-url", cfg.ProxyURL, "proxy endpoint")
	timeout := flag.Duration("timeout", 60*time.Second, "per-scenario timeout")
	verbose := flag.Bool("v", false, "log controller events to stderr")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalf("init logger: %v", err)
		}
	}
	defer logger.Sync()

	transport := chat.NewHTTPTransport(*proxyURL, nil)
	scenarios := defaultScenarios()

	passed := 0
	for _, sc := range scenarios {
		fmt.Printf("=== Running: %s ===\n", sc.Name)
		res := runScenario(ctx, transport, sc, *timeout, logger)
		if last, ok := res.State.LastMessage(); ok {
			fmt.Printf("--- reply (%s) ---\n%s\n------------------\n", res.Elapsed.Round(time.Millisecond), last.Content)
		}
		if res.Passed() {
			fmt.Printf("✅ PASS [%s]\n\n", sc.Name)
			passed++
		} else {
			fmt.Printf("❌ FAIL [%s] %v\n\n", sc.Name, res.Failure)
		}
	}

	fmt.Printf("Scenarios: %d/%d passed\n", passed, len(scenarios))
	if passed != len(scenarios) {
		os.Exit(1)
	}
}
