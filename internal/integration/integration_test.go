package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"tune-trivia-service/internal/app"
	"tune-trivia-service/internal/domain"
	"tune-trivia-service/internal/infra/memory"
	pgstore "tune-trivia-service/internal/infra/postgres"
	pgmigrations "tune-trivia-service/internal/infra/postgres/migrations"
	infraredis "tune-trivia-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSubmitResultEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := memory.NewStaticPlaylistLoader(map[string]domain.ResolvedPlaylist{
		"PLtest": samplePlaylist(),
	})
	playlists := infraredis.NewPlaylistRepository(redisClient, loader, 5*time.Minute)
	games := infraredis.NewCachedGameStore(redisClient, pgstore.NewGameStore(pool), 5*time.Minute)
	service := app.NewGameService(playlists, games)

	playlist, err := service.ResolvePlaylist(ctx, "https://www.youtube.com/playlist?list=PLtest")
	if err != nil {
		t.Fatalf("resolve playlist: %v", err)
	}
	if playlist.Title != "Integration Hits" || len(playlist.Songs) != 3 {
		t.Fatalf("unexpected playlist: %+v", playlist)
	}

	submissions := []domain.GameSubmission{
		{PlayerName: "Alice", PlaylistID: "PLtest", Score: 300, TotalQuestions: 3},
		{PlayerName: "Bob", PlaylistID: "PLtest", Score: 100, TotalQuestions: 3},
		{PlayerName: "Carol", PlaylistID: "PLtest", Score: 200, TotalQuestions: 3},
	}
	for _, sub := range submissions {
		if _, err := service.SubmitResult(ctx, sub); err != nil {
			t.Fatalf("submit %s: %v", sub.PlayerName, err)
		}
	}

	top, err := service.Leaderboard(ctx, "PLtest")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].PlayerName != "Alice" || top[1].PlayerName != "Carol" || top[2].PlayerName != "Bob" {
		t.Fatalf("unexpected ordering: %+v", top)
	}
	if top[0].ID == 0 || top[0].CreatedAt.IsZero() {
		t.Fatalf("expected persisted result metadata, got %+v", top[0])
	}

	// A new submission must invalidate the cached leaderboard.
	if _, err := service.SubmitResult(ctx, domain.GameSubmission{
		PlayerName: "Dave", PlaylistID: "PLtest", Score: 400, TotalQuestions: 4,
	}); err != nil {
		t.Fatalf("submit dave: %v", err)
	}
	top, err = service.Leaderboard(ctx, "PLtest")
	if err != nil {
		t.Fatalf("leaderboard after submit: %v", err)
	}
	if len(top) != 4 || top[0].PlayerName != "Dave" {
		t.Fatalf("expected dave leading 4 entries, got %+v", top)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func samplePlaylist() domain.ResolvedPlaylist {
	return domain.ResolvedPlaylist{
		ID:    "PLtest",
		Title: "Integration Hits",
		Songs: []domain.PlaylistSong{
			{ID: "v1", Title: "Song One", Thumbnail: "https://img.youtube.com/vi/v1/mqdefault.jpg"},
			{ID: "v2", Title: "Song Two", Thumbnail: "https://img.youtube.com/vi/v2/mqdefault.jpg"},
			{ID: "v3", Title: "Song Three", Thumbnail: "https://img.youtube.com/vi/v3/mqdefault.jpg"},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
