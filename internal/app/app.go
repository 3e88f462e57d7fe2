package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	connectAttempts = 5
	connectTimeout  = 5 * time.Second
	firstBackoff    = 500 * time.Millisecond
)

// Tables the dashboard writes; their DDL is owned by the migrations repo.
var requiredTables = []string{"orders", "routes", "operators"}

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
}

// NewApp connects to Postgres with exponential backoff and checks that the
// dispatch tables exist.
func NewApp(cfg *config.Config) (*App, error) {
	pool, err := connectWithBackoff(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := checkTables(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &App{Config: cfg, DB: pool}, nil
}

func (a *App) Close() {
	if a.DB == nil {
		return
	}
	a.DB.Close()
	utils.Logger.Infof("%s DB connection closed.", a.Config.AppName)
}

func connectWithBackoff(cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("parsing DB_URL: %w", err)
	}
	poolCfg.MaxConnIdleTime = 2 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	wait := firstBackoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
		cancel()
		if err == nil {
			utils.Logger.Infof("%s connected to DB on attempt %d", cfg.AppName, attempt)
			return pool, nil
		}
		if attempt == connectAttempts {
			return nil, fmt.Errorf("unable to connect after %d attempts: %w", connectAttempts, err)
		}
		utils.Logger.WithError(err).Warnf("DB connect attempt %d/%d failed, retrying in %v", attempt, connectAttempts, wait)
		time.Sleep(wait)
		wait *= 2
	}
}

func checkTables(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range requiredTables {
		var found *string
		if err := pool.QueryRow(ctx, `SELECT to_regclass($1)::text`, table).Scan(&found); err != nil {
			return fmt.Errorf("checking table %s: %w", table, err)
		}
		if found == nil {
			return fmt.Errorf("table %s does not exist", table)
		}
	}
	return nil
}
