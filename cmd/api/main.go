package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/adapters/token"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy, err := app.ParseMembershipPolicy(cfg.MembershipPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid MEMBERSHIP_POLICY")
	}

	// db
	store, closeStore, err := storage.Open(ctx, cfg.StoreDriver, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store failed")
	}
	defer func() { _ = closeStore() }()

	// deps
	rdb := redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	cache := redisad.New(rdb)
	queue := redisad.NewQueue(rdb, cfg.QueueKey)
	clock := domain.RealClock()

	membership := app.NewMembershipProvisioner(queue, cache, clock, policy)
	promoter := app.NewPromoter(token.NewIssuer(cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
	hotels := app.NewHotelService(store, membership, promoter, cache, cfg.CacheTTL)
	reviews := app.NewReviewService(store, cache, clock)

	// http
	srv := server.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Hotels:       hotels,
		Reviews:      reviews,
		Users:        store.Users(),
		Validate:     app.NewValidator(),
		CookieSecure: cfg.CookieSecure,
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Str("membership_policy", string(policy)).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
