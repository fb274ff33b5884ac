package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/email-shooter/internal/api"
	"github.com/ignite/email-shooter/internal/archive"
	"github.com/ignite/email-shooter/internal/composer"
	"github.com/ignite/email-shooter/internal/config"
	"github.com/ignite/email-shooter/internal/pkg/distlock"
	"github.com/ignite/email-shooter/internal/pkg/logger"
	"github.com/ignite/email-shooter/internal/repository/postgres"
	"github.com/ignite/email-shooter/internal/sender"
	"github.com/ignite/email-shooter/internal/service/campaign"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

// extractHost returns host:port from a DSN so credentials never reach logs.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())
	logger.SetFields("service", "email-shooter")

	host, port := cfg.Server.GetHost(), cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Submission history (optional)
	var db *sql.DB
	var history *postgres.SubmissionRepo
	if cfg.Database.Enabled() {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxOpenConns / 2)
		db.SetConnMaxLifetime(30 * time.Minute)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		pingCancel()
		if err != nil {
			logger.Warn("database unreachable, submission history disabled", "host", extractHost(cfg.Database.URL), "error", err)
			db.Close()
			db = nil
		} else {
			history = postgres.NewSubmissionRepo(db)
			if err := history.EnsureSchema(ctx); err != nil {
				log.Fatalf("Failed to prepare schema: %v", err)
			}
			logger.Info("submission history enabled", "host", extractHost(cfg.Database.URL))
		}
	}

	// Redis for cross-replica submission locks (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.Warn("redis unreachable, falling back", "error", err)
			redisClient.Close()
			redisClient = nil
		}
	}

	locker := distlock.NewLocker(redisClient, db, cfg.Redis.LockTTL())
	logger.Info("submission locks ready", "backend", locker.Backend())

	store, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		log.Fatalf("Failed to initialize archive: %v", err)
	}

	opts := []campaign.Option{campaign.WithLocker(locker)}
	if history != nil {
		opts = append(opts, campaign.WithHistory(history))
	}
	if store != nil {
		opts = append(opts, campaign.WithArchive(store))
		logger.Info("submission archive enabled", "type", cfg.Archive.Type)
	}
	svc := campaign.NewService(sender.NewClient(cfg.Sender), opts...)

	drafts := composer.NewManager(svc, cfg.Composer)
	go drafts.Run(ctx)

	uploadLimit := cfg.Composer.MaxFileBytes
	if cfg.Composer.MaxAttachmentBytes > uploadLimit {
		uploadLimit = cfg.Composer.MaxAttachmentBytes
	}
	handlers := api.NewHandlers(drafts, svc, uploadLimit+1<<20)
	health := api.NewHealthChecker(db, redisClient, drafts.Len)
	server := api.NewServer(api.SetupRoutes(handlers, health, cfg.CORS.AllowedOrigins))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		logger.Info("starting server", "addr", addr, "sender", cfg.Sender.URL())
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("server stopped")
}
