package migrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	chstore "defi-cohort-lab/internal/storage/clickhouse"
)

const clickhouseLedgerDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     UInt32,
    name        String,
    applied_at  DateTime DEFAULT now()
) ENGINE = MergeTree()
ORDER BY version`

// RunClickhouseMigrations creates the database named in dsn, applies every
// embedded migration not yet recorded in schema_migrations and prepares the
// publisher's staging tables. Returns a connection to the database.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	serverDSN, dbName, err := splitDatabase(dsn)
	if err != nil {
		return nil, err
	}
	all, err := Load(clickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConn(ctx, serverDSN)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse server: %w", err)
	}
	err = admin.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName)
	admin.Close()
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	if err := migrateClickhouse(ctx, conn, all); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func migrateClickhouse(ctx context.Context, conn *chstore.Conn, all []Migration) error {
	if err := conn.Exec(ctx, clickhouseLedgerDDL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := conn.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var v uint32
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[int(v)] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}

	todo := pending(all, applied)
	for _, m := range todo {
		stmts, err := splitStatements(m.SQL)
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		// The native protocol runs one statement per Exec
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}
		if err := conn.Exec(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", uint32(m.Version), m.Name,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
	}

	// Staging copies must follow any change to the live tables
	if len(todo) > 0 {
		return chstore.ResetStagingTables(ctx, conn)
	}
	return chstore.EnsureStagingTables(ctx, conn)
}

// splitStatements splits a migration on semicolons after dropping -- comment
// lines. A semicolon inside a quoted literal is rejected rather than split.
func splitStatements(sql string) ([]string, error) {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	body := b.String()

	quoted := false
	for _, ch := range body {
		switch {
		case ch == '\'':
			quoted = !quoted
		case ch == ';' && quoted:
			return nil, fmt.Errorf("semicolon inside string literal")
		}
	}

	var stmts []string
	for _, part := range strings.Split(body, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// splitDatabase returns dsn without its database path, and the database name.
func splitDatabase(dsn string) (string, string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return "", "", fmt.Errorf("clickhouse dsn missing database")
	}
	u.Path = ""
	return u.String(), db, nil
}
