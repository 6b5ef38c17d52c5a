package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"smartquiz/internal/app"
	"smartquiz/internal/config"
	"smartquiz/internal/infra/memory"
	pgstore "smartquiz/internal/infra/postgres"
	rediscache "smartquiz/internal/infra/redis"
	"smartquiz/internal/ingest"
	transport "smartquiz/internal/transport/http"
	"smartquiz/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the bot and HTTP server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Write side and read side split: bun handles subject/question/stats
	// writes, pgx feeds the question cache. Without Postgres everything runs
	// off one in-memory store.
	var (
		ingestStore ingest.Store
		subjects    app.SubjectSource
		users       app.UserStore
		stats       app.StatsStore
		loader      memory.Loader
	)
	if pool != nil {
		bunDB := openBunDB(cfg.Postgres.URL)
		defer bunDB.Close()
		store := pgstore.NewStore(bunDB)
		ingestStore, subjects, users, stats = store, store, store, store
		loader = pgstore.NewQuestionLoader(pool)
	} else {
		store := memory.NewStore()
		ingestStore, subjects, users, stats = store, store, store, store
		loader = store
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = rediscache.NewQuestionCache(redisClient, loader, cacheTTL)
	} else {
		questions = memory.NewQuestionCache(loader, cacheTTL)
	}

	ingestSvc := ingest.NewService(ingestStore, ingest.NewParser(cfg.Quiz.OptionsPerQuestion))
	feed := app.NewResultsFeed()

	api, err := telegram.NewAPI(cfg.Telegram.Token, cfg.Telegram.Debug)
	if err != nil {
		return err
	}

	engine := app.NewEngine(app.EngineConfig{
		Sessions:    memory.NewSessionStore(),
		Questions:   questions,
		Subjects:    subjects,
		Users:       users,
		Stats:       stats,
		Feed:        feed,
		SectionSize: cfg.Quiz.SectionSize,
		BotName:     api.Self.UserName,
	})
	bot := telegram.NewBot(api, engine, ingestSvc)

	mux := http.NewServeMux()
	transport.NewHandler(ingestSvc, feed).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	botCtx, cancelBot := context.WithCancel(ctx)
	defer cancelBot()

	go func() {
		log.Printf("starting quiz bot, http on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()
	go func() {
		if err := bot.Run(botCtx); err != nil && err != context.Canceled {
			log.Printf("bot stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down...")
	}
	cancelBot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
