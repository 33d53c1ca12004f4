package dialect

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"db-factory/internal/dbcontext"
)

// PostgresFactory configures GORM for PostgreSQL through pgx.
type PostgresFactory struct {
	Logger *slog.Logger
}

func (f *PostgresFactory) System() System { return Postgres }

func (f *PostgresFactory) ParseConnectionString(raw string) (ConnectionStringBuilder, error) {
	return ParsePostgresConnectionString(raw)
}

func (f *PostgresFactory) BuildConnectionString(p ConnectionParameters) (ConnectionStringBuilder, error) {
	return NewPostgresConnectionString(p)
}

func (f *PostgresFactory) CreateDataProvider(c dbcontext.Context) DataProvider {
	return &PostgresDataProvider{baseProvider{ctx: c}}
}

func (f *PostgresFactory) ContextOptions(connectionString string, commandTimeout *time.Duration) (*dbcontext.Options, error) {
	if err := dbcontext.NotEmpty("connection string", connectionString); err != nil {
		return nil, err
	}

	b := dbcontext.NewOptionsBuilder().
		WithLogger(loggerOrDefault(f.Logger)).
		UseProvider(postgresProvider{}, connectionString, func(sql *dbcontext.RelationalOptionsBuilder) {
			if commandTimeout != nil {
				sql.CommandTimeout(*commandTimeout)
			}
		}).
		ReplaceTranslatorProvider(NewPostgresTranslatorProvider())
	return b.Options(), nil
}

func (f *PostgresFactory) ConfigureExecutionContext(b *dbcontext.OptionsBuilder, connectionString string) *dbcontext.OptionsBuilder {
	ext, found := dbcontext.FindExtension[*dbcontext.FactoryExtension](b.Options())
	return b.
		UseProvider(postgresProvider{}, connectionString, func(sql *dbcontext.RelationalOptionsBuilder) {
			if found {
				applyExtension(sql, ext)
			}
		}).
		ReplaceTranslatorProvider(NewPostgresTranslatorProvider())
}

// postgresProvider opens pgx-backed GORM dialectors.
type postgresProvider struct{}

func (postgresProvider) Name() string { return string(Postgres) }

func (postgresProvider) Open(connectionString string, log *slog.Logger) (gorm.Dialector, error) {
	cs, err := ParsePostgresConnectionString(connectionString)
	if err != nil {
		return nil, err
	}
	poolCfg, err := cs.PoolConfig()
	if err != nil {
		return nil, err
	}
	if cs.Multiplexing {
		log.Warn("multiplexing is not available with pgx, using one command per connection")
	}

	db := stdlib.OpenDB(*poolCfg.ConnConfig)
	applyPool(db, cs.PoolSettings)

	log.Debug("postgres pool configured",
		"host", cs.Host,
		"database", cs.Database,
		"pooling", cs.Pooling,
		"max_pool_size", cs.MaxPoolSize)

	return postgres.New(postgres.Config{Conn: db}), nil
}
