package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/seismic-data-api/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seismic-data-api/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/seismic-data-api/internal/adapter/mongo"
	"github.com/couchcryptid/seismic-data-api/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-data-api/internal/auth"
	"github.com/couchcryptid/seismic-data-api/internal/config"
	"github.com/couchcryptid/seismic-data-api/internal/observability"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
)

const mongoConnectTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	policy, err := config.LoadQueryPolicy(cfg.QueryPolicyFile)
	if err != nil {
		logger.Error("failed to load query policy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := httpadapter.Deps{
		Feed:            usgs.NewClient(cfg.USGSBaseURL, metrics, logger),
		Policy:          policy,
		UpstreamTimeout: cfg.UpstreamTimeout,
		UpstreamLimit:   cfg.UpstreamLimit,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		TrustedProxies:  cfg.TrustedProxies,
		Metrics:         metrics,
	}

	// User accounts (feature-flagged via USERS_ENABLED / MONGO_URI).
	var mongoClient *mongo.Client
	if cfg.UsersEnabled {
		mongoClient, err = mongoadapter.Connect(ctx, cfg.MongoURI, mongoConnectTimeout)
		if err != nil {
			logger.Error("failed to connect to mongo", "error", err)
			os.Exit(1)
		}
		users := mongoadapter.NewUserStore(mongoClient, cfg.MongoDatabase)
		if err := users.EnsureIndexes(ctx); err != nil {
			logger.Error("failed to ensure user indexes", "error", err)
			os.Exit(1)
		}
		deps.Users = users
		deps.Tokens = auth.NewTokens([]byte(cfg.JWTSecret), cfg.JWTTTL, nil)
		deps.Ready = users
		logger.Info("user accounts enabled", "database", cfg.MongoDatabase)
	} else {
		logger.Info("user accounts disabled")
	}

	// Contact messages (enabled when KAFKA_BROKERS is set).
	var contacts *kafkaadapter.ContactWriter
	if cfg.ContactsEnabled() {
		contacts = kafkaadapter.NewContactWriter(cfg, logger)
		deps.Contacts = contacts
		logger.Info("contact messages enabled", "topic", cfg.KafkaContactTopic)
	} else {
		logger.Info("contact messages disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, deps, logger)

	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if contacts != nil {
		if err := contacts.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error("mongo disconnect error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
