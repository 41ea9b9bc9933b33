package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chancehr/internal/platform/config"
)

// Seed ensures the named development workplace exists and returns its id. It does nothing when no
// name is configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) (string, error) {
	name := strings.TrimSpace(cfg.SeedWorkplace)
	if name == "" {
		return "", nil
	}
	return ensureWorkplace(ctx, pool, name, cfg.Timezone)
}

func ensureWorkplace(ctx context.Context, pool *pgxpool.Pool, name, timezone string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM workplaces WHERE name = $1 ORDER BY created_at LIMIT 1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = pool.QueryRow(ctx, `
    INSERT INTO workplaces (name, latitude, longitude, timezone)
    VALUES ($1, 37.5665, 126.9780, $2)
    RETURNING id
  `, name, timezone).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
