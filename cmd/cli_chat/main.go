package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"streamchat/internal/chat"
	"streamchat/internal/config"
	"streamchat/internal/db"
	"streamchat/internal/domain"
	"streamchat/internal/repository"
	"streamchat/internal/ui"
)

var (
	cfg   *config.ClientConfig
	model string
	width int
)

var rootCmd = &cobra.Command{
	Use:   "cli_chat",
	Short: "Streaming chat client for the streamchat proxy",
	Long: `cli_chat keeps one conversation on this machine and streams replies
from the proxy as they are generated.

Type a message to send it. /help lists the commands. Ctrl+C stops the
current reply, or exits when nothing is streaming.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		loaded, err := config.LoadClientConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(cmd, loaded)
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored conversation and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer app.close()
		app.console.Transcript(app.store.State().Messages)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored conversation and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer app.close()
		app.repo.Reset(cmd.Context())
		app.console.Info("stored conversation deleted")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("proxy-url", "", "proxy endpoint (overrides CHAT_PROXY_URL)")
	flags.String("store", "", "persistence backend: file, sqlite, redis, postgres, memory (overrides CHAT_STORE)")
	flags.String("store-path", "", "directory for file store or database file for sqlite (overrides CHAT_STORE_PATH)")
	flags.String("log-file", "", "write logs to this file (overrides CHAT_LOG_FILE)")
	flags.IntVar(&width, "width", 80, "word wrap width for rendered replies")
	rootCmd.Flags().StringVar(&model, "model", "", "model for this session: gpt-4o or gpt-3.5-turbo")

	rootCmd.AddCommand(historyCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func applyFlags(cmd *cobra.Command, c *config.ClientConfig) {
	if v, _ := cmd.Flags().GetString("proxy-url"); v != "" {
		c.ProxyURL = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		c.Store = v
		if !cmd.Flags().Changed("store-path") && os.Getenv("CHAT_STORE_PATH") == "" {
			c.StorePath = ""
		}
	}
	if v, _ := cmd.Flags().GetString("store-path"); v != "" {
		c.StorePath = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		c.LogFile = v
	}
	if c.StorePath == "" {
		c.StorePath = config.DefaultStorePath(c.Store)
	}
}

type app struct {
	logger  *zap.Logger
	repo    *repository.ConversationRepository
	store   *chat.Store
	console *ui.Console
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// newApp arma las piezas del cliente y deja el store hidratado.
func newApp(ctx context.Context, out io.Writer) (*app, error) {
	logger, err := newLogger(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger}

	kv, err := openKV(ctx, a)
	if err != nil {
		a.close()
		return nil, err
	}

	a.repo = repository.NewConversationRepository(kv, logger)
	a.store = chat.NewStore(chat.InitialState())
	chat.Hydrate(ctx, a.store, a.repo)
	a.console = ui.NewConsole(out, width)
	return a, nil
}

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	a, err := newApp(ctx, out)
	if err != nil {
		return err
	}
	defer a.close()

	unmirror := chat.Mirror(a.store, a.repo)
	defer unmirror()
	unsubscribe := a.store.Subscribe(a.console.OnChange)
	defer unsubscribe()

	transport := chat.NewHTTPTransport(cfg.ProxyURL, nil)
	ctrl := chat.NewController(a.store, transport, a.logger)
	if model != "" {
		if _, ok := domain.LookupModel(model); !ok {
			return fmt.Errorf("unknown model %q", model)
		}
		ctrl.SetModel(domain.ModelType(model))
	}

	state := a.store.State()
	if len(state.Messages) > 0 {
		a.console.Transcript(state.Messages)
	}
	a.console.Info("model %s · proxy %s · /help for commands", state.Model, cfg.ProxyURL)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	repl := ui.NewREPL(ctrl, a.store, a.console)
	return repl.Run(ctx, in, interrupts)
}

func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func openKV(ctx context.Context, a *app) (repository.KVStore, error) {
	switch cfg.Store {
	case "memory":
		return repository.NewMemoryKV(), nil
	case "file", "":
		return repository.NewFileKV(cfg.StorePath)
	case "sqlite":
		conn, err := db.OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { conn.Close() })
		return repository.NewSQLiteKV(ctx, conn)
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			a.logger.Warn("redis ping failed", zap.Error(err))
		}
		return repository.NewRedisKV(client, cfg.RedisPrefix), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		kv := repository.NewPgKV(pool)
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("create chat_kv: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
