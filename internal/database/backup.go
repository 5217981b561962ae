package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ManagedTables are the tables written while processing a date
var ManagedTables = []string{"samples", "predictors", "predictions"}

// DefaultBackupSchema holds table snapshots
const DefaultBackupSchema = "punter_backup"

// SchemaBackup snapshots tables into a separate schema and copies them back on restore
type SchemaBackup struct {
	db     *DB
	schema string
	tables []string
}

// NewSchemaBackup creates a backup over the given tables in DefaultBackupSchema
func NewSchemaBackup(db *DB, tables ...string) *SchemaBackup {
	return &SchemaBackup{db: db, schema: DefaultBackupSchema, tables: tables}
}

// Backup replaces the snapshot of every managed table in a single transaction
func (b *SchemaBackup) Backup(ctx context.Context) error {
	err := b.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		schema := pgx.Identifier{b.schema}.Sanitize()
		if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return fmt.Errorf("failed to create backup schema: %w", err)
		}
		for _, table := range b.tables {
			source := pgx.Identifier{table}.Sanitize()
			target := pgx.Identifier{b.schema, table}.Sanitize()
			if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+target); err != nil {
				return fmt.Errorf("failed to drop snapshot of %s: %w", table, err)
			}
			if _, err := tx.Exec(ctx, "CREATE TABLE "+target+" AS TABLE "+source); err != nil {
				return fmt.Errorf("failed to snapshot %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	return nil
}

// Restore truncates every managed table and reloads it from its snapshot
func (b *SchemaBackup) Restore(ctx context.Context) error {
	err := b.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, table := range b.tables {
			source := pgx.Identifier{b.schema, table}.Sanitize()
			target := pgx.Identifier{table}.Sanitize()

			var exists bool
			err := tx.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", b.schema+"."+table).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check snapshot of %s: %w", table, err)
			}
			if _, err := tx.Exec(ctx, "TRUNCATE "+target); err != nil {
				return fmt.Errorf("failed to truncate %s: %w", table, err)
			}
			if !exists {
				continue
			}
			if _, err := tx.Exec(ctx, "INSERT INTO "+target+" SELECT * FROM "+source); err != nil {
				return fmt.Errorf("failed to restore %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	return nil
}
