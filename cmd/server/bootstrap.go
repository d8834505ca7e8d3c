package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/coffeeshop/internal/api"
	"github.com/charlesng35/coffeeshop/internal/app"
	"github.com/charlesng35/coffeeshop/internal/app/maintenance"
	iauth "github.com/charlesng35/coffeeshop/internal/auth"
	"github.com/charlesng35/coffeeshop/internal/database"
	"github.com/charlesng35/coffeeshop/internal/services"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Keys      *iauth.RemoteKeySet
	Scheduler *maintenance.Scheduler
	Router    *gin.Engine
}

// bootstrapRuntime opens the database, prepares the key cache and builds the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial bootstrap cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	drinks, err := services.NewDrinkService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise drink service: %w", err)
	}

	stack.Keys, err = iauth.NewRemoteKeySet(cfg.Auth.KeySetConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise key set: %w", err)
	}
	if cfg.Auth.PrefetchKeys {
		if err := stack.Keys.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("prefetch signing keys: %w", err)
		}
		log.Info("signing keys loaded", zap.Int("keys", stack.Keys.KeyCount()))
	}

	verifier, err := iauth.NewVerifier(stack.Keys, cfg.Auth.VerifierConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise token verifier: %w", err)
	}

	stack.Scheduler = maintenance.NewScheduler(cfg.Auth.KeyRefresh.Schedule, []maintenance.KeyRefresher{stack.Keys})
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start key refresh: %w", err)
	}

	db := stack.DB
	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:   cfg,
		Drinks:   drinks,
		Verifier: verifier,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and releases the database, waiting at most until ctx ends.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Scheduler != nil {
		select {
		case <-s.Scheduler.Stop().Done():
		case <-ctx.Done():
			errs = multierr.Append(errs, fmt.Errorf("stop key refresh: %w", ctx.Err()))
		}
	}

	if s.DB != nil {
		errs = multierr.Append(errs, closeDatabase(s.DB))
	}
	return errs
}

func initialiseDatabase(cfg *app.Config, log *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.ResetOnStart {
		log.Warn("resetting drinks table; existing drinks will be discarded")
	}
	if err := database.Prepare(db, cfg.Database.ResetOnStart); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("prepare database: %w", err)
	}

	driver := strings.ToLower(strings.TrimSpace(dbCfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}
	log.Info("database connected", zap.String("driver", driver))
	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
