package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"jsonblog-api/cache"
	"jsonblog-api/config"
	"jsonblog-api/feed"
	"jsonblog-api/handlers"
	"jsonblog-api/repository"
)

func openStore(ctx context.Context, cfg config.Config) (repository.PostStore, error) {
	switch cfg.StoreDriver {
	case "file":
		log.Printf("Using file store %s", cfg.StorePath)
		return repository.NewFilePostRepo(cfg.StorePath), nil

	case "sqlite":
		log.Printf("Using sqlite store %s", cfg.SQLitePath)
		return repository.NewSQLitePostRepo(cfg.SQLitePath)

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL())
		if err != nil {
			return nil, errors.Wrap(err, "db open error")
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "db ping error")
		}
		log.Println("DB connected")

		repo := repository.NewPostRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	}
	return nil, errors.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store init error: %v", err)
	}
	defer store.Close()

	h := &handlers.PostHandler{
		Store: store,
		Feed:  feed.NewBuilder(cfg.SiteTitle, cfg.SiteURL),
		Log:   log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime),
	}

	if cfg.RedisAddr != "" {
		rc := cache.New(cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTLSeconds)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			// best-effort: the API still works without a cache
			log.Printf("redis ping error, continuing without cache: %v", err)
		}
		cancel()
		defer rc.Close()
		h.Cache = rc
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(h),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s ...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
