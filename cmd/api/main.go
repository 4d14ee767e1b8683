package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"flyerflix/internal/adapter/repo"
	"flyerflix/internal/billing"
	"flyerflix/internal/engagement"
	"flyerflix/internal/http/handlers"
	"flyerflix/internal/http/httpapi"
	"flyerflix/internal/infra"
	"flyerflix/internal/infra/credentials"
	"flyerflix/internal/infra/geoip"
	"flyerflix/internal/infra/google"
	"flyerflix/internal/middleware"
	"flyerflix/internal/recommend"
	"flyerflix/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	kv, err := engagement.OpenBadger(cfg.EngagementDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open engagement store")
	}
	defer kv.Close()

	avatars, staticDir := buildAvatarStore(cfg, logger)

	checkoutKey := strings.TrimSpace(cfg.CheckoutAPIKey)
	webhookSecret := strings.TrimSpace(cfg.CheckoutWebhookKey)
	if checkoutKey == "" || webhookSecret == "" {
		credStore := credentials.NewStore(runner)
		if checkoutKey == "" {
			if key, err := credStore.CheckoutAPIKey(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to load checkout api key from store")
			} else {
				checkoutKey = key
			}
		}
		if webhookSecret == "" {
			if secret, err := credStore.WebhookSecret(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to load webhook secret from store")
			} else {
				webhookSecret = secret
			}
		}
	}
	if checkoutKey == "" {
		logger.Warn().Msg("checkout api key missing, billing endpoints will reject requests")
	}

	billingClient, err := billing.NewClient(billing.Options{
		APIKey:     checkoutKey,
		BaseURL:    cfg.CheckoutAPIBaseURL,
		PriceID:    cfg.CheckoutPriceID,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure billing client")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, locale falls back to headers")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		SQL:            runner,
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		GoogleVerifier: google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID),
		Engagement:     engagement.NewStore(kv, logger),
		Recommend:      recommend.New(nil),
		Avatars:        avatars,
		Billing:        billingClient,
		Users:          repo.NewUserRepository(runner),
		WebhookEvents:  repo.NewWebhookEventRepository(runner),
		WebhookSecret:  webhookSecret,
		PriceDisplay:   cfg.UltimatePriceDisplay,
		QuotaLoc:       cfg.QuotaLocation(),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "pt",
		CountryLookup:   countryLookup,
		StaticAvatarDir: staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildAvatarStore prefers S3 and falls back to the local filesystem store,
// returning the directory to serve statically in the fallback case.
func buildAvatarStore(cfg *infra.Config, logger infra.Logger) (storage.AvatarStore, string) {
	if cfg.S3Configured() {
		store, err := storage.NewS3AvatarStore(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3 avatar store")
		}
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("avatars stored in s3")
		return store, ""
	}

	fileStore, err := storage.NewFileStore(cfg.AvatarDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure avatar storage")
	}
	logger.Info().Str("dir", cfg.AvatarDir).Msg("avatars stored on local filesystem")
	return storage.NewFileAvatarStore(fileStore, cfg.AvatarBaseURL, uuid.NewString), cfg.AvatarDir
}
