package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/auth"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/cache"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/config"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/database"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/distributions"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/documents"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/logging"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/metrics"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/rooms"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/server"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/storage"
	"github.com/Nichaphat-svg/Electronic-Government-Document-Registration-System/internal/users"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "registry-api",
		Short: "Government document registry backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("storage-path", defaults.GetString("storage.path"), "Directory for uploaded files")
	cmd.PersistentFlags().String("storage-base-url", defaults.GetString("storage.public_base_url"), "Public base URL for uploaded files")
	cmd.PersistentFlags().String("cache-redis-url", "", "Redis URL for the shared cache (empty keeps the in-memory cache)")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "storage.path", "storage-path")
	bindFlag(cmd, "storage.public_base_url", "storage-base-url")
	bindFlag(cmd, "cache.redis_url", "cache-redis-url")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var sharedCache cache.Store = cache.NewMemoryStore()
	if appConfig.CacheRedisURL != "" {
		redisCache, err := cache.NewRedisStore(ctx, appConfig.CacheRedisURL)
		if err != nil {
			return err
		}
		defer redisCache.Close() //nolint:errcheck
		sharedCache = redisCache
		logger.Info("redis cache enabled")
	}

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "registry-auth",
		Audience:      "registry-api",
		TokenTTL:      time.Duration(appConfig.TokenTTLMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}

	idProvider := documents.NewUUIDProvider()
	documentService, err := documents.NewService(documents.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Cache:      sharedCache,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	roomService, err := rooms.NewService(rooms.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Cache:      sharedCache,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	distributionService, err := distributions.NewService(distributions.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Cache:      sharedCache,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	userService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	fileStore, err := storage.NewStore(storage.StoreConfig{
		Root:    appConfig.StoragePath,
		BaseURL: appConfig.StorageBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager:  tokenManager,
		Documents:     documentService,
		Rooms:         roomService,
		Distributions: distributionService,
		Users:         userService,
		FileStore:     fileStore,
		Metrics:       metrics.New(registry),
		Realtime:      server.NewRealtimeDispatcher(),
		MetricsRoute:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Clock:         time.Now,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
