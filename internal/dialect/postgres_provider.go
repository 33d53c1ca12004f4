package dialect

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresDataProvider implements DataProvider for PostgreSQL.
type PostgresDataProvider struct {
	baseProvider
}

func (p *PostgresDataProvider) System() System       { return Postgres }
func (p *PostgresDataProvider) FriendlyName() string { return "PostgreSQL" }

func (p *PostgresDataProvider) Features() Feature {
	return FeatureShrink | FeatureReIndex | FeatureComputeSize | FeatureStreamBlob | FeatureExecuteSQLScript
}

// EncloseIdentifier quotes each segment of a schema-qualified name.
func (p *PostgresDataProvider) EncloseIdentifier(name string) string {
	parts := splitIdentifier(name)
	for i, part := range parts {
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, ".")
}

func (p *PostgresDataProvider) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (p *PostgresDataProvider) ApplyPaging(query string, skip, take int) string {
	return applyPaging(query, skip, take)
}

func (p *PostgresDataProvider) InsertSQL(table string, columns []string) string {
	return insertSQL(p, table, columns)
}

func (p *PostgresDataProvider) TruncateTableSQL(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", p.EncloseIdentifier(table))
}

func (p *PostgresDataProvider) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := p.scalar(ctx, &version, "SELECT version()"); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (p *PostgresDataProvider) HasDatabase(ctx context.Context, name string) (bool, error) {
	ok, err := p.exists(ctx, "SELECT COUNT(*) FROM pg_database WHERE datname = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return ok, nil
}

func (p *PostgresDataProvider) HasTable(ctx context.Context, table string) (bool, error) {
	schema, name := qualifyTable(table)
	ok, err := p.exists(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), current_schema())
		  AND table_name = ?`, schema, name)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return ok, nil
}

func (p *PostgresDataProvider) HasColumn(ctx context.Context, table, column string) (bool, error) {
	schema, name := qualifyTable(table)
	ok, err := p.exists(ctx, `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(?, ''), current_schema())
		  AND table_name = ?
		  AND column_name = ?`, schema, name, column)
	if err != nil {
		return false, fmt.Errorf("failed to check column existence: %w", err)
	}
	return ok, nil
}

func (p *PostgresDataProvider) TableNames(ctx context.Context) ([]string, error) {
	names, err := p.list(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return names, nil
}

func (p *PostgresDataProvider) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	if err := p.scalar(ctx, &size, "SELECT pg_database_size(current_database())"); err != nil {
		return 0, fmt.Errorf("failed to get database size: %w", err)
	}
	return size, nil
}

// ShrinkDatabase runs VACUUM, which cannot run inside a transaction.
func (p *PostgresDataProvider) ShrinkDatabase(ctx context.Context) error {
	if err := p.exec(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func (p *PostgresDataProvider) ReIndexTables(ctx context.Context) error {
	var db string
	if err := p.scalar(ctx, &db, "SELECT current_database()"); err != nil {
		return fmt.Errorf("failed to get database name: %w", err)
	}
	if err := p.exec(ctx, "REINDEX DATABASE "+pq.QuoteIdentifier(db)); err != nil {
		return fmt.Errorf("failed to reindex %s: %w", db, err)
	}
	return nil
}

func (p *PostgresDataProvider) TruncateTable(ctx context.Context, table string) error {
	if err := p.exec(ctx, p.TruncateTableSQL(table)); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	return nil
}
