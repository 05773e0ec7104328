package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"defi-cohort-lab/internal/storage/postgres"
)

const postgresLedgerDDL = `CREATE TABLE IF NOT EXISTS public.schema_migrations (
    version     INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// postgresLockKey serializes migrations across processes starting together.
const postgresLockKey int64 = 0x636f686f7274 // "cohort"

// RunPostgresMigrations applies every embedded migration not yet recorded in
// public.schema_migrations. Each file commits together with its ledger row.
// Returns the migrations applied by this call.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]Migration, error) {
	all, err := Load(postgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", postgresLockKey); err != nil {
		return nil, fmt.Errorf("lock migrations: %w", err)
	}
	defer conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", postgresLockKey)

	if _, err := conn.Exec(ctx, postgresLedgerDDL); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := postgresApplied(ctx, conn)
	if err != nil {
		return nil, err
	}

	todo := pending(all, applied)
	for _, m := range todo {
		if err := applyPostgres(ctx, conn, m); err != nil {
			return nil, err
		}
	}
	return todo, nil
}

func postgresApplied(ctx context.Context, conn *pgxpool.Conn) (map[int]bool, error) {
	rows, err := conn.Query(ctx, "SELECT version FROM public.schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func applyPostgres(ctx context.Context, conn *pgxpool.Conn, m Migration) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", m.Name, err)
	}
	defer tx.Rollback(ctx)

	// No arguments: pgx uses the simple protocol, which allows multiple statements
	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply migration %s: %w", m.Name, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO public.schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", m.Name, err)
	}
	return nil
}
