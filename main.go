package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard-api/api"
	"taskboard-api/storage"
)

func main() {
	// A local .env is a convenience for development; absence is not an error.
	_ = godotenv.Load()

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	store, err := buildStore()
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	// Fail fast when the store is unreachable at startup; per-request
	// failures later are surfaced to callers instead of crashing.
	pingCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("storage unreachable: %v", err)
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	logger := log.New()
	api.Register(e, store, logger)

	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		// Serve the browser client, falling back to index.html so client-side
		// routes resolve.
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  dir,
			HTML5: true,
		}))
	}

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// buildStore selects the persistence backend: an Azure Table when connection
// settings are present, otherwise a file-backed standalone store. Either may
// be wrapped with a Redis cache.
func buildStore() (api.TaskStore, error) {
	var base api.TaskStore

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tasksTableName := os.Getenv("TASKS_TABLE")
	localPath := os.Getenv("LOCAL_STORE_PATH")
	switch {
	case connStr != "" && tasksTableName != "":
		st, err := storage.New(connStr, tasksTableName)
		if err != nil {
			return nil, err
		}
		base = st
		log.WithField("table", tasksTableName).Info("using table storage")
	case localPath != "":
		st, err := storage.OpenLocal(localPath)
		if err != nil {
			return nil, err
		}
		base = st
		log.WithField("path", localPath).Info("using local file storage")
	default:
		log.Fatal("missing storage config: set STORAGE_CONNECTION_STRING and TASKS_TABLE, or LOCAL_STORE_PATH")
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		return base, nil
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		// Azure-style connection strings are comma-separated key=value pairs.
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	ttl := 5 * time.Minute
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid CACHE_TTL: %v", err)
		}
		ttl = d
	}
	log.WithField("ttl", ttl).Info("task list caching enabled")
	return storage.NewCache(base, redis.NewClient(redisOpts), ttl), nil
}
