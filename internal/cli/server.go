package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tune-trivia-service/internal/app"
	"tune-trivia-service/internal/config"
	"tune-trivia-service/internal/infra/memory"
	pgstore "tune-trivia-service/internal/infra/postgres"
	redisinfra "tune-trivia-service/internal/infra/redis"
	"tune-trivia-service/internal/resolver"
	transport "tune-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	chain := resolver.New(resolver.Config{
		APIKey:    cfg.Resolver.APIKey,
		StrictKey: cfg.Resolver.StrictKey,
	})
	if cfg.Resolver.APIKey == "" {
		log.Printf("no youtube api key configured; relying on fallback strategies (strict_key=%v)", cfg.Resolver.StrictKey)
	}

	playlistTTL := config.TTLDuration(cfg.Playlist.TTL, 10*time.Minute)
	var playlists app.PlaylistRepository
	if redisClient != nil {
		playlists = redisinfra.NewPlaylistRepository(redisClient, chain, playlistTTL)
	} else {
		playlists = memory.NewPlaylistRepository(chain, playlistTTL)
	}

	var games app.GameStore
	if pool != nil {
		games = pgstore.NewGameStore(pool)
	} else {
		games = memory.NewGameStore()
	}
	if redisClient != nil {
		games = redisinfra.NewCachedGameStore(redisClient, games, redisTTL)
	}

	service := app.NewGameService(playlists, games)
	apiHandler := transport.NewAPIHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
