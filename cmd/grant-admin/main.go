// Command grant-admin gives the admin role to the registered accounts listed in
// ADMIN_EMAILS. Operators run it after confirming who owns those accounts;
// registration itself never creates admins.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/chachabrian/venue-backend/internal/database"
	"github.com/chachabrian/venue-backend/internal/logger"
	"github.com/chachabrian/venue-backend/internal/repository"
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

	emails := cfg.AdminEmailList()
	if len(emails) == 0 {
		zlog.Fatal("ADMIN_EMAILS is empty")
	}

	db, err := database.InitDB(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	promoted, err := repository.NewUserRepository(db).GrantAdmin(ctx, emails)
	if err != nil {
		zlog.Fatal("grant failed", zap.Error(err))
	}
	zlog.Info("admin role granted", zap.Strings("promoted", promoted), zap.Int("listed", len(emails)))
}
