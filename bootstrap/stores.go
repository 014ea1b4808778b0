package bootstrap

import (
	"context"
	"fmt"
	"sync"

	apihttp "github.com/fsg1/fmms/adapters/http"
	"github.com/fsg1/fmms/adapters/postgres"
	"github.com/fsg1/fmms/adapters/sqlite"
	"github.com/fsg1/fmms/config"
	"github.com/fsg1/fmms/ports"
	"github.com/rs/zerolog"
)

// Stores bundles the ports served by one database.
type Stores struct {
	Curricula ports.CurriculumSource
	Modules   ports.ModuleStore
	Health    apihttp.HealthChecker

	close     func() error
	closeOnce sync.Once
	closeErr  error
}

// Close releases the database. Later calls return the first result.
func (s *Stores) Close() error {
	s.closeOnce.Do(func() {
		if s.close != nil {
			s.closeErr = s.close()
		}
	})
	return s.closeErr
}

// OpenStores connects to the configured database, applies pending
// migrations and checks that the revision tables can be written in plan
// order.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Stores, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if err := db.CheckRevisionTables(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("schema check: %w", err)
		}
		logger.Info().Str("dsn", cfg.DSN).Msg("sqlite database initialized")
		return &Stores{
			Curricula: sqlite.NewCurriculumStore(db),
			Modules:   sqlite.NewModuleStore(db),
			Health:    db,
			close:     db.Close,
		}, nil

	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN, int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Int("max_conns", cfg.MaxConns).Msg("postgres pool initialized")
		return &Stores{
			Curricula: postgres.NewCurriculumStore(db),
			Modules:   postgres.NewModuleStore(db),
			Health:    db,
			close:     db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// Migrate applies pending migrations without starting the service.
// It returns the migrations that were pending before the run; postgres
// does not report them.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) ([]string, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		pending, err := db.Pending()
		if err != nil {
			return nil, err
		}
		return pending, db.Migrate()

	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN, int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return nil, db.Migrate(ctx)
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
