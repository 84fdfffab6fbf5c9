package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Open connects to the configured database, creates the schema when missing
// and returns the form repository.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (FormRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		repo FormRepository
		err  error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		logger.Info("opening sqlite database", "path", cfg.DSN)
		repo, err = NewSQLiteRepository(cfg.DSN, logger)
	case DriverPostgres:
		repo, err = openPostgres(ctx, cfg, logger)
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown database driver %q", cfg.Driver), common.ErrInvalidInput)
	}
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	logger.Info("successfully connected to database", "driver", cfg.Driver)
	return repo, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*PostgresRepository, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "parse dsn", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "ipqc-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	ctx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "create pool", err)
	}
	if err := HealthCheck(ctx, pool, 0, logger); err != nil {
		pool.Close()
		return nil, common.NewAppError(common.CodeDatabase, "ping", err)
	}
	return NewPostgresRepository(pool, logger), nil
}

// Pinger is the part of a connection pool HealthCheck needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, p Pinger, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := p.Ping(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
