package dialect

import (
	"context"
	"fmt"
	"strings"
)

// SQLServerDataProvider implements DataProvider for Microsoft SQL Server.
type SQLServerDataProvider struct {
	baseProvider
}

func (p *SQLServerDataProvider) System() System       { return SQLServer }
func (p *SQLServerDataProvider) FriendlyName() string { return "SQL Server" }

func (p *SQLServerDataProvider) Features() Feature {
	return FeatureShrink | FeatureReIndex | FeatureComputeSize | FeatureStreamBlob | FeatureExecuteSQLScript
}

func (p *SQLServerDataProvider) EncloseIdentifier(name string) string {
	parts := splitIdentifier(name)
	for i, part := range parts {
		parts[i] = "[" + strings.ReplaceAll(part, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}

// Placeholder returns @p1, @p2 ... as go-mssqldb expects.
func (p *SQLServerDataProvider) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

// ApplyPaging uses OFFSET/FETCH, which needs an ORDER BY.
func (p *SQLServerDataProvider) ApplyPaging(query string, skip, take int) string {
	if skip <= 0 && take <= 0 {
		return query
	}
	if !strings.Contains(strings.ToUpper(query), "ORDER BY") {
		query += " ORDER BY (SELECT NULL)"
	}
	query += fmt.Sprintf(" OFFSET %d ROWS", max(skip, 0))
	if take > 0 {
		query += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", take)
	}
	return query
}

func (p *SQLServerDataProvider) InsertSQL(table string, columns []string) string {
	return insertSQL(p, table, columns)
}

func (p *SQLServerDataProvider) TruncateTableSQL(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", p.EncloseIdentifier(table))
}

func (p *SQLServerDataProvider) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := p.scalar(ctx, &version, "SELECT @@VERSION"); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (p *SQLServerDataProvider) HasDatabase(ctx context.Context, name string) (bool, error) {
	ok, err := p.exists(ctx, "SELECT COUNT(*) FROM sys.databases WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return ok, nil
}

func (p *SQLServerDataProvider) HasTable(ctx context.Context, table string) (bool, error) {
	schema, name := qualifyTable(table)
	ok, err := p.exists(ctx, `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), SCHEMA_NAME()) AND TABLE_NAME = ?`, schema, name)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return ok, nil
}

func (p *SQLServerDataProvider) HasColumn(ctx context.Context, table, column string) (bool, error) {
	schema, name := qualifyTable(table)
	ok, err := p.exists(ctx, `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), SCHEMA_NAME()) AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		schema, name, column)
	if err != nil {
		return false, fmt.Errorf("failed to check column existence: %w", err)
	}
	return ok, nil
}

func (p *SQLServerDataProvider) TableNames(ctx context.Context) ([]string, error) {
	names, err := p.list(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return names, nil
}

// DatabaseSize sums the data and log files; sizes are stored in 8 KB pages.
func (p *SQLServerDataProvider) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	if err := p.scalar(ctx, &size, "SELECT COALESCE(SUM(CAST(size AS bigint)), 0) * 8192 FROM sys.database_files"); err != nil {
		return 0, fmt.Errorf("failed to get database size: %w", err)
	}
	return size, nil
}

func (p *SQLServerDataProvider) ShrinkDatabase(ctx context.Context) error {
	if err := p.exec(ctx, "DBCC SHRINKDATABASE (0)"); err != nil {
		return fmt.Errorf("failed to shrink database: %w", err)
	}
	return nil
}

// ReIndexTables rebuilds every index of every base table in the default schema.
func (p *SQLServerDataProvider) ReIndexTables(ctx context.Context) error {
	tables, err := p.TableNames(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := p.exec(ctx, "ALTER INDEX ALL ON "+p.EncloseIdentifier(t)+" REBUILD"); err != nil {
			return fmt.Errorf("failed to rebuild indexes on %s: %w", t, err)
		}
	}
	return nil
}

// TruncateTable fails when another table references table through a foreign key.
func (p *SQLServerDataProvider) TruncateTable(ctx context.Context, table string) error {
	if err := p.exec(ctx, p.TruncateTableSQL(table)); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	return nil
}
