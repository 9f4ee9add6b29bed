package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"kataster.exe.dev/db"
	"kataster.exe.dev/srv"
	"kataster.exe.dev/srv/kataster"
	"kataster.exe.dev/srv/viewport"
)

var flagListenAddr = flag.String("listen", ":8000", "address to listen on")
var flagDBPath = flag.String("db", "db.sqlite3", "path to the local sqlite database")
var flagStaticDir = flag.String("static", "", "directory with frontend assets (optional)")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func run() error {
	_ = godotenv.Load(".env")
	flag.Parse()
	setupLogging()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	client := newKatasterClient()

	store, err := newViewportStore(*flagDBPath)
	if err != nil {
		return err
	}

	server := srv.New(client, store, hostname)
	server.StaticDir = *flagStaticDir
	return server.Serve(*flagListenAddr)
}

// setupLogging sets the default slog level and format from the environment.
func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(h))
}

// newKatasterClient builds the feature service client from the
// environment: KATASTER_WFS_URL overrides the public endpoint,
// KATASTER_TIMEOUT_SEC the request timeout (0 disables it).
func newKatasterClient() *kataster.Client {
	client := kataster.NewClient()
	if base := os.Getenv("KATASTER_WFS_URL"); base != "" {
		client = kataster.NewClientWithURL(base)
	}
	if v := os.Getenv("KATASTER_TIMEOUT_SEC"); v != "" {
		var sec int
		if _, err := fmt.Sscanf(v, "%d", &sec); err == nil && sec >= 0 {
			client.SetTimeout(time.Duration(sec) * time.Second)
		}
	}
	return client
}

// newViewportStore prefers redis when REDIS_ADDR is set, otherwise the
// local sqlite database.
func newViewportStore(dbPath string) (viewport.Store, error) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASS"),
		})
		slog.Info("viewport store", "backend", "redis", "addr", addr)
		return viewport.NewRedisStore(rdb), nil
	}

	d, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.RunMigrations(d); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("viewport store", "backend", "sqlite", "path", dbPath)
	return viewport.NewSQLiteStore(d), nil
}
