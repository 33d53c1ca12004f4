package dialect

import (
	"database/sql"
	"log/slog"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	gormsqlserver "gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"db-factory/internal/dbcontext"
)

// SQLServerFactory configures GORM for Microsoft SQL Server through go-mssqldb.
type SQLServerFactory struct {
	Logger *slog.Logger
}

func (f *SQLServerFactory) System() System { return SQLServer }

func (f *SQLServerFactory) ParseConnectionString(raw string) (ConnectionStringBuilder, error) {
	return ParseSQLServerConnectionString(raw)
}

func (f *SQLServerFactory) BuildConnectionString(p ConnectionParameters) (ConnectionStringBuilder, error) {
	return NewSQLServerConnectionString(p)
}

func (f *SQLServerFactory) CreateDataProvider(c dbcontext.Context) DataProvider {
	return &SQLServerDataProvider{baseProvider{ctx: c}}
}

func (f *SQLServerFactory) ContextOptions(connectionString string, commandTimeout *time.Duration) (*dbcontext.Options, error) {
	if err := dbcontext.NotEmpty("connection string", connectionString); err != nil {
		return nil, err
	}

	b := dbcontext.NewOptionsBuilder().
		WithLogger(loggerOrDefault(f.Logger)).
		UseProvider(sqlserverProvider{}, connectionString, func(sql *dbcontext.RelationalOptionsBuilder) {
			if commandTimeout != nil {
				sql.CommandTimeout(*commandTimeout)
			}
		}).
		ReplaceTranslatorProvider(NewSQLServerTranslatorProvider())
	return b.Options(), nil
}

func (f *SQLServerFactory) ConfigureExecutionContext(b *dbcontext.OptionsBuilder, connectionString string) *dbcontext.OptionsBuilder {
	ext, found := dbcontext.FindExtension[*dbcontext.FactoryExtension](b.Options())
	return b.
		UseProvider(sqlserverProvider{}, connectionString, func(sql *dbcontext.RelationalOptionsBuilder) {
			if found {
				applyExtension(sql, ext)
			}
		}).
		ReplaceTranslatorProvider(NewSQLServerTranslatorProvider())
}

type sqlserverProvider struct{}

func (sqlserverProvider) Name() string { return string(SQLServer) }

func (sqlserverProvider) Open(connectionString string, log *slog.Logger) (gorm.Dialector, error) {
	cs, err := ParseSQLServerConnectionString(connectionString)
	if err != nil {
		return nil, err
	}
	cfg, err := cs.Config()
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(mssql.NewConnectorConfig(cfg))
	applyPool(db, cs.PoolSettings)

	log.Debug("sqlserver pool configured",
		"host", cfg.Host,
		"database", cfg.Database,
		"pooling", cs.Pooling,
		"max_pool_size", cs.MaxPoolSize)

	return gormsqlserver.New(gormsqlserver.Config{Conn: db}), nil
}
