package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vlasebian/timerbe/internal/dbconfig"
)

func setupDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")

	// Optional startup migration for dev deployments
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := runMigration(ctx, pool, path); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return pool, nil
}

func runMigration(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sqlBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration: %w", err)
	}

	if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}

	log.Info().Str("path", path).Msg("migration applied")
	return nil
}
