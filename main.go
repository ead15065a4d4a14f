package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harbordata/dbbroker/pkg/adapters/engine"
	_ "github.com/harbordata/dbbroker/pkg/adapters/engine/clickhouse"
	_ "github.com/harbordata/dbbroker/pkg/adapters/engine/mongodb"
	_ "github.com/harbordata/dbbroker/pkg/adapters/engine/mysql"
	_ "github.com/harbordata/dbbroker/pkg/adapters/engine/postgres"
	"github.com/harbordata/dbbroker/pkg/audit"
	"github.com/harbordata/dbbroker/pkg/auth"
	"github.com/harbordata/dbbroker/pkg/config"
	"github.com/harbordata/dbbroker/pkg/crypto"
	"github.com/harbordata/dbbroker/pkg/database"
	"github.com/harbordata/dbbroker/pkg/handlers"
	"github.com/harbordata/dbbroker/pkg/kvstore"
	"github.com/harbordata/dbbroker/pkg/logging"
	"github.com/harbordata/dbbroker/pkg/middleware"
	"github.com/harbordata/dbbroker/pkg/repositories"
	"github.com/harbordata/dbbroker/pkg/retry"
	"github.com/harbordata/dbbroker/pkg/services"
)

// Version is set at build time via ldflags.
var Version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("store", cfg.Store.Database))

	if err := database.RunMigrations(cfg.Store.ConnectionString(), migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// The store may still be starting when the broker does.
	ctx := context.Background()
	store, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.Store, error) {
		return database.Connect(ctx, &database.Config{
			URL:            cfg.Store.ConnectionString(),
			MaxConnections: cfg.Store.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to store", zap.Error(err))
	}
	defer store.Close()

	cipher, err := crypto.NewSecretCipher(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal("Failed to initialize credential encryption", zap.Error(err))
	}

	revoked := kvstore.New(time.Minute)
	defer revoked.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to initialize JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, revoked,
		time.Duration(cfg.Broker.RevokedTokenTTLMinutes)*time.Minute, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	auditor := audit.NewSecurityAuditor(logger)

	repo := repositories.NewConnectionRepository(store)
	factory := engine.NewFactory(logger)
	connectionService := services.NewConnectionService(repo, factory, cipher, auditor,
		time.Duration(cfg.Broker.DisconnectDelayMillis)*time.Millisecond, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	databasesHandler := handlers.NewDatabasesHandler(connectionService, logger)
	databasesHandler.RegisterRoutes(mux, authMiddleware)

	authHandler := handlers.NewAuthHandler(authService, auditor, logger)
	authHandler.RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting dbbroker",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
