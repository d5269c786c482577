package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/chachabrian/venue-backend/internal/database"
	"github.com/chachabrian/venue-backend/internal/gallery"
	"github.com/chachabrian/venue-backend/internal/handlers"
	"github.com/chachabrian/venue-backend/internal/logger"
	"github.com/chachabrian/venue-backend/internal/middleware"
	"github.com/chachabrian/venue-backend/internal/notify"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/chachabrian/venue-backend/internal/services"
	"github.com/chachabrian/venue-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 20 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg.DB, zlog)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Redis is optional: without it retried creates are not deduplicated and
	// booking events only reach websocket clients of this instance.
	rdb, err := services.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		zlog.Warn("Redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	storage, err := services.NewStorage(cfg.Storage, cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	pusher, err := services.NewPusher(ctx, cfg.Firebase, zlog)
	if err != nil {
		// Push is optional; the rest of the server works without it.
		zlog.Warn("Firebase initialization failed, push disabled", zap.Error(err))
		pusher, _ = services.NewPusher(ctx, config.FirebaseConfig{}, zlog)
	}

	hub := services.NewHub(zlog)
	go hub.Run(ctx)

	users := repository.NewUserRepository(db)
	prefs := repository.NewPreferenceRepository(db)

	var sinks []notify.Sink
	if mailer := utils.NewMailer(cfg.SMTP, cfg.VenueName, cfg.BaseURL); mailer.Enabled() {
		sinks = append(sinks, notify.NewEmailSink(mailer, prefs, cfg.SMTP.AdminEmail))
	} else {
		zlog.Warn("SMTP not configured, booking emails disabled")
	}
	if pusher.Enabled() {
		sinks = append(sinks, notify.NewPushSink(pusher, users, prefs))
	}

	var idempotency middleware.IdempotencyStore
	if rdb != nil {
		idempotency = rdb
		sinks = append(sinks, notify.NewRedisSink(rdb))

		pubsub := rdb.Subscribe(ctx, services.BookingEventsChannel)
		defer pubsub.Close()
		go notify.Relay(ctx, pubsub.Channel(), notify.NewHubSink(hub), zlog)
	} else {
		sinks = append(sinks, notify.NewHubSink(hub))
	}

	dispatcher := notify.NewDispatcher(zlog, notify.DefaultTimeout, sinks...)
	defer dispatcher.Wait()

	bookings := booking.NewService(db, zlog,
		booking.WithNotifier(dispatcher),
		booking.WithLocation(loc),
	)

	deps := handlers.Deps{
		Config:      cfg,
		Log:         zlog,
		Bookings:    bookings,
		Gallery:     gallery.NewService(db, storage, zlog),
		Users:       users,
		Prefs:       prefs,
		Hub:         hub,
		Pusher:      pusher,
		Idempotency: idempotency,
	}
	if !storage.UsingS3() {
		deps.UploadDir = storage.LocalDir()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
