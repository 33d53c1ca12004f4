package dialect

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"db-factory/internal/dbcontext"
)

// MySQLFactory configures GORM for MySQL and MariaDB.
type MySQLFactory struct {
	Logger *slog.Logger
}

func (f *MySQLFactory) System() System { return MySQL }

func (f *MySQLFactory) ParseConnectionString(raw string) (ConnectionStringBuilder, error) {
	return ParseMySQLConnectionString(raw)
}

func (f *MySQLFactory) BuildConnectionString(p ConnectionParameters) (ConnectionStringBuilder, error) {
	return NewMySQLConnectionString(p)
}

func (f *MySQLFactory) CreateDataProvider(c dbcontext.Context) DataProvider {
	return &MySQLDataProvider{baseProvider{ctx: c}}
}

func (f *MySQLFactory) ContextOptions(connectionString string, commandTimeout *time.Duration) (*dbcontext.Options, error) {
	if err := dbcontext.NotEmpty("connection string", connectionString); err != nil {
		return nil, err
	}

	b := dbcontext.NewOptionsBuilder().
		WithLogger(loggerOrDefault(f.Logger)).
		UseProvider(mysqlProvider{}, connectionString, func(sql *dbcontext.RelationalOptionsBuilder) {
			if commandTimeout != nil {
				sql.CommandTimeout(*commandTimeout)
			}
		}).
		ReplaceTranslatorProvider(NewMySQLTranslatorProvider())
	return b.Options(), nil
}

func (f *MySQLFactory) ConfigureExecutionContext(b *dbcontext.OptionsBuilder, connectionString string) *dbcontext.OptionsBuilder {
	ext, found := dbcontext.FindExtension[*dbcontext.FactoryExtension](b.Options())
	return b.
		UseProvider(mysqlProvider{}, connectionString, func(sql *dbcontext.RelationalOptionsBuilder) {
			if found {
				applyExtension(sql, ext)
			}
		}).
		ReplaceTranslatorProvider(NewMySQLTranslatorProvider())
}

// mysqlProvider opens go-sql-driver backed GORM dialectors.
type mysqlProvider struct{}

func (mysqlProvider) Name() string { return string(MySQL) }

func (mysqlProvider) Open(connectionString string, log *slog.Logger) (gorm.Dialector, error) {
	cs, err := ParseMySQLConnectionString(connectionString)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cs.Config())
	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(connector)
	pool := cs.Pool()
	applyPool(db, pool)

	log.Debug("mysql pool configured",
		"addr", cs.cfg.Addr,
		"database", cs.cfg.DBName,
		"max_pool_size", pool.MaxPoolSize)

	return gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), nil
}
