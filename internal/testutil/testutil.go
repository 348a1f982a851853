package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Athul-13/tablespot-api/internal/api"
	"github.com/Athul-13/tablespot-api/internal/cache"
	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/repository"
	repoPostgres "github.com/Athul-13/tablespot-api/internal/repository/postgres"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/Athul-13/tablespot-api/internal/websocket"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database for one test. It is an in-memory SQLite
// database unless TEST_DATABASE=postgres, in which case a PostgreSQL
// testcontainer is started and migrated with the goose migrations.
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
	postgres  bool
}

// NewTestDB creates a fresh database and registers its cleanup.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if os.Getenv("TEST_DATABASE") == "postgres" {
		return newPostgresTestDB(t)
	}

	dsn := fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repoPostgres.NewConnection(context.Background(), dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	testDB := &TestDB{DB: db, DSN: dsn}
	t.Cleanup(testDB.Cleanup)
	return testDB
}

func newPostgresTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("test_tablespot"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := repoPostgres.NewConnection(ctx, dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
		postgres:  true,
	}
	t.Cleanup(testDB.Cleanup)
	return testDB
}

// Cleanup closes the connection and terminates the container, if any.
func (tdb *TestDB) Cleanup() {
	if sqlDB, err := tdb.DB.DB(); err == nil {
		sqlDB.Close()
	}
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"auth_events",
		"comments",
		"ratings",
		"restaurants",
		"password_reset_tokens",
		"refresh_tokens",
		"users",
	}

	for _, table := range tables {
		stmt := "DELETE FROM " + table
		if tdb.postgres {
			stmt = fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
		}
		if err := tdb.DB.Exec(stmt).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Environment:         "test",
		JWTSecret:           "test-jwt-secret-key-for-testing-only",
		JWTExpiresIn:        "15m",
		JWTRefreshExpiresIn: "7d",
		BcryptCost:          4, // bcrypt.MinCost keeps tests fast
		PasswordResetExpiry: time.Hour,
		CORSOrigins:         []string{"http://localhost:5173"},
		CookieSameSite:      "lax",
		FrontendURL:         "http://localhost:5173",
		RatingCacheTTL:      time.Minute,
	}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CaptureNotifier records password reset links instead of sending them.
type CaptureNotifier struct {
	mu     sync.Mutex
	tokens map[string][]string
	Err    error
}

func NewCaptureNotifier() *CaptureNotifier {
	return &CaptureNotifier{tokens: make(map[string][]string)}
}

func (n *CaptureNotifier) SendPasswordResetLink(_ context.Context, email, rawToken string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.tokens[email] = append(n.tokens[email], rawToken)
	return nil
}

// LastToken returns the most recent raw reset token sent to email.
func (n *CaptureNotifier) LastToken(email string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	tokens := n.tokens[email]
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[len(tokens)-1], true
}

// Count returns how many reset links were sent to email.
func (n *CaptureNotifier) Count(email string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tokens[email])
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
	Notifier *CaptureNotifier
	Redis    *miniredis.Miniredis
}

// NewTestServer creates a complete test server with all dependencies. The
// rating cache is backed by an in-process miniredis.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	log := DiscardLogger()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	repos := repoPostgres.NewRepositories(testDB.DB)
	hub := websocket.NewHub(log)
	go hub.Run()

	notifier := NewCaptureNotifier()
	services := service.NewServices(repos, cfg, service.Dependencies{
		Notifier: notifier,
		Cache:    cache.NewRatingCache(redisClient, cfg.RatingCacheTTL),
		Live:     hub,
		Logger:   log,
	})

	sqlDB, err := testDB.DB.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	router := api.NewRouter(services, hub, sqlDB, cfg, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
		Notifier: notifier,
		Redis:    mr,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// LiveURL returns the websocket URL of a restaurant's live feed.
func (ts *TestServer) LiveURL(restaurantID uuid.UUID) string {
	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http")
	return fmt.Sprintf("%s/api/v1/restaurants/%s/live", wsURL, restaurantID)
}

// NewClient returns an HTTP client with its own cookie jar, acting as one browser.
func (ts *TestServer) NewClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}
