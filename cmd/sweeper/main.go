// Command sweeper moves bookings whose date has passed into the history table.
// It runs once and exits, for use from cron.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/chachabrian/venue-backend/internal/database"
	"github.com/chachabrian/venue-backend/internal/logger"
	"go.uber.org/zap"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		zlog.Fatal("invalid venue timezone", zap.Error(err))
	}

	db, err := database.InitDB(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	svc := booking.NewService(db, zlog, booking.WithLocation(loc))
	moved, err := svc.MovePastBookingsToHistory(ctx)
	if err != nil {
		zlog.Fatal("sweep failed", zap.Int("moved", moved), zap.Error(err))
	}
	zlog.Info("sweep finished", zap.Int("moved", moved), zap.String("today", svc.Today().String()))
}
