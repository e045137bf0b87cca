package trainerbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/Cheese-opening-trainer/internal/chess/openingbook"
	"github.com/park285/Cheese-opening-trainer/internal/config"
	svc "github.com/park285/Cheese-opening-trainer/internal/service/training"
	"go.uber.org/zap"
)

type Deps struct {
	Service *svc.Service
	Store   svc.RepertoireStore
	Repo    svc.Repository
	Book    *openingbook.Source
	DB      *sql.DB
}

// New wires the repertoire store, run repository and opening book selected
// by cfg into a training service.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := &Deps{Store: store, Book: openingbook.NewSource(cfg.OpeningBookPath)}

	// Postgres is optional; without it runs stay in memory for the process lifetime.
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, db, err := svc.OpenRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init repository: %w", err)
		}
		deps.Repo, deps.DB = repo, db
	} else {
		logger.Warn("training_history_in_memory", zap.String("reason", "DATABASE_URL not set"))
		deps.Repo = svc.NewMemoryRepository()
	}

	svcCfg := svc.Config{
		BotDelay:      cfg.TrainerBotDelay,
		AutoAdvance:   cfg.TrainerAutoAdvance,
		SessionIdle:   cfg.TrainerSessionIdle,
		HistoryLimit:  cfg.TrainerHistoryLimit,
		AllowedRooms:  append([]string(nil), cfg.AllowedRooms...),
		BookMaxPly:    cfg.OpeningBookMaxPly,
		BookMinWeight: uint16(cfg.OpeningBookMinWeight),
	}
	service, err := svc.NewService(deps.Store, deps.Repo, deps.Book, svcCfg, logger)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Service = service

	logger.Info("trainer_deps_ready",
		zap.String("store", cfg.RepertoireStore),
		zap.Bool("postgres", deps.DB != nil),
		zap.Bool("opening_book", deps.Book.Configured()),
	)
	return deps, nil
}

// OpenStore returns the repertoire store named by cfg.RepertoireStore.
func OpenStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (svc.RepertoireStore, error) {
	switch cfg.RepertoireStore {
	case config.StoreRedis:
		store, err := svc.NewRedisStore(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return store, nil
	case config.StoreBolt:
		store, err := svc.NewBoltStore(cfg.RepertoireBoltPath, logger)
		if err != nil {
			return nil, fmt.Errorf("init bolt store: %w", err)
		}
		return store, nil
	case config.StoreMemory, "":
		return svc.NewMemoryStore(logger), nil
	}
	return nil, fmt.Errorf("unknown repertoire store %q", cfg.RepertoireStore)
}

func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}
