package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// MySQLDataProvider implements DataProvider for MySQL and MariaDB.
type MySQLDataProvider struct {
	baseProvider
}

func (p *MySQLDataProvider) System() System       { return MySQL }
func (p *MySQLDataProvider) FriendlyName() string { return "MySQL" }

func (p *MySQLDataProvider) Features() Feature {
	return FeatureShrink | FeatureComputeSize | FeatureStreamBlob | FeatureExecuteSQLScript
}

func (p *MySQLDataProvider) EncloseIdentifier(name string) string {
	parts := splitIdentifier(name)
	for i, part := range parts {
		parts[i] = "`" + strings.ReplaceAll(part, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

func (p *MySQLDataProvider) Placeholder(index int) string {
	return "?"
}

// ApplyPaging uses the maximum row count when only skip is given; MySQL has no bare OFFSET.
func (p *MySQLDataProvider) ApplyPaging(query string, skip, take int) string {
	if take <= 0 && skip > 0 {
		return fmt.Sprintf("%s LIMIT 18446744073709551615 OFFSET %d", query, skip)
	}
	return applyPaging(query, skip, take)
}

func (p *MySQLDataProvider) InsertSQL(table string, columns []string) string {
	return insertSQL(p, table, columns)
}

func (p *MySQLDataProvider) TruncateTableSQL(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s", p.EncloseIdentifier(table))
}

func (p *MySQLDataProvider) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := p.scalar(ctx, &version, "SELECT VERSION()"); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (p *MySQLDataProvider) HasDatabase(ctx context.Context, name string) (bool, error) {
	ok, err := p.exists(ctx, "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?", name)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return ok, nil
}

func (p *MySQLDataProvider) HasTable(ctx context.Context, table string) (bool, error) {
	ok, err := p.exists(ctx, `
		SELECT COUNT(*)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`, table)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return ok, nil
}

func (p *MySQLDataProvider) HasColumn(ctx context.Context, table, column string) (bool, error) {
	ok, err := p.exists(ctx, `
		SELECT COUNT(*)
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`, table, column)
	if err != nil {
		return false, fmt.Errorf("failed to check column existence: %w", err)
	}
	return ok, nil
}

func (p *MySQLDataProvider) TableNames(ctx context.Context) ([]string, error) {
	names, err := p.list(ctx, `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return names, nil
}

func (p *MySQLDataProvider) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	err := p.scalar(ctx, &size, `
		SELECT COALESCE(SUM(DATA_LENGTH + INDEX_LENGTH), 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE()`)
	if err != nil {
		return 0, fmt.Errorf("failed to get database size: %w", err)
	}
	return size, nil
}

// ShrinkDatabase optimizes every base table.
func (p *MySQLDataProvider) ShrinkDatabase(ctx context.Context) error {
	tables, err := p.TableNames(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := p.exec(ctx, "OPTIMIZE TABLE "+p.EncloseIdentifier(t)); err != nil {
			return fmt.Errorf("failed to optimize %s: %w", t, err)
		}
	}
	return nil
}

func (p *MySQLDataProvider) ReIndexTables(ctx context.Context) error {
	return fmt.Errorf("%w: reindex on %s", ErrNotSupported, p.FriendlyName())
}

// TruncateTable disables foreign key checks on one connection for the duration of the truncate.
// The checks are restored even after ctx is done; a connection that cannot be restored is
// discarded rather than returned to the pool.
func (p *MySQLDataProvider) TruncateTable(ctx context.Context, table string) error {
	tx, cancel := p.ctx.Session(ctx)
	defer cancel()

	err := tx.Connection(func(conn *gorm.DB) (err error) {
		if err := conn.Exec("SET FOREIGN_KEY_CHECKS = 0").Error; err != nil {
			return err
		}
		defer func() {
			// a fresh handle: conn carries the truncate error, which would skip the statement
			restore := conn.WithContext(context.WithoutCancel(ctx))
			restore.Error = nil
			if rerr := restore.Exec("SET FOREIGN_KEY_CHECKS = 1").Error; rerr != nil {
				discardConn(conn)
				err = errors.Join(err, fmt.Errorf("restore foreign key checks: %w", rerr))
			}
		}()
		return conn.Exec(p.TruncateTableSQL(table)).Error
	})
	if err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	return nil
}

// discardConn marks the connection held by conn bad so the pool closes it.
func discardConn(conn *gorm.DB) {
	if c, ok := conn.Statement.ConnPool.(*sql.Conn); ok {
		_ = c.Raw(func(any) error { return driver.ErrBadConn })
	}
}
