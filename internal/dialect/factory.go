package dialect

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"db-factory/internal/dbcontext"
)

// GetFactory returns the Factory for driver. log may be nil.
func GetFactory(driver string, log *slog.Logger) (Factory, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgsql", "pgx":
		return &PostgresFactory{Logger: log}, nil
	case "mysql", "mariadb":
		return &MySQLFactory{Logger: log}, nil
	case "sqlserver", "mssql":
		return &SQLServerFactory{Logger: log}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database system %q", dbcontext.ErrInvalidArgument, driver)
	}
}

// Ensure interface implementation
var _ Factory = (*PostgresFactory)(nil)
var _ Factory = (*MySQLFactory)(nil)
var _ Factory = (*SQLServerFactory)(nil)
var _ DataProvider = (*PostgresDataProvider)(nil)
var _ DataProvider = (*MySQLDataProvider)(nil)
var _ DataProvider = (*SQLServerDataProvider)(nil)

// CreateExecutionContext builds a context of type T for connectionString.
// The constructor for T must be registered in r.
func CreateExecutionContext[T dbcontext.Context](f Factory, r *dbcontext.Registry, connectionString string, commandTimeout *time.Duration) (T, error) {
	var zero T
	opts, err := f.ContextOptions(connectionString, commandTimeout)
	if err != nil {
		return zero, err
	}
	return dbcontext.Construct[T](r, opts)
}

// applyExtension copies the set fields of ext onto sql.
func applyExtension(sql *dbcontext.RelationalOptionsBuilder, ext *dbcontext.FactoryExtension) {
	if ext == nil {
		return
	}
	if ext.CommandTimeout != nil {
		sql.CommandTimeout(*ext.CommandTimeout)
	}
	if ext.MinBatchSize != nil {
		sql.MinBatchSize(*ext.MinBatchSize)
	}
	if ext.MaxBatchSize != nil {
		sql.MaxBatchSize(*ext.MaxBatchSize)
	}
	if ext.QuerySplittingBehavior != nil {
		sql.UseQuerySplittingBehavior(*ext.QuerySplittingBehavior)
	}
	if ext.UseRelationalNulls != nil {
		sql.UseRelationalNulls(*ext.UseRelationalNulls)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
