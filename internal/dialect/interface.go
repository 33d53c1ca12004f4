package dialect

import (
	"context"
	"errors"
	"strings"
	"time"

	"db-factory/internal/dbcontext"
)

// ErrNotSupported is returned by DataProvider hooks the database system cannot perform.
var ErrNotSupported = errors.New("operation not supported by provider")

// System identifies a database engine.
type System string

const (
	Postgres  System = "postgres"
	MySQL     System = "mysql"
	SQLServer System = "sqlserver"
)

// ConnectionParameters are the caller-supplied pieces of a connection string.
// Server is required; the rest may be empty depending on the auth mode.
type ConnectionParameters struct {
	Server   string
	Database string
	UserID   string
	Password string
}

// PoolSettings describe the connection pool a context opens.
type PoolSettings struct {
	Pooling         bool
	MinPoolSize     int
	MaxPoolSize     int
	Multiplexing    bool
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Fixed pool defaults for builders made from ConnectionParameters.
const (
	DefaultMinPoolSize = 1
	DefaultMaxPoolSize = 1024
)

// DefaultPoolSettings returns pooling on, min 1, max 1024, multiplexing off.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		Pooling:      true,
		MinPoolSize:  DefaultMinPoolSize,
		MaxPoolSize:  DefaultMaxPoolSize,
		Multiplexing: false,
	}
}

// ConnectionStringBuilder is a mapping from named connection options to values.
type ConnectionStringBuilder interface {
	// Get returns the value stored under key. Dialect aliases are accepted.
	Get(key string) (string, bool)

	// Set stores value under key. An empty value clears the key.
	Set(key, value string) error

	// Keys returns the set keys in rendering order.
	Keys() []string

	// Pool returns the pool settings carried by the builder.
	Pool() PoolSettings

	// String renders the connection string in the dialect grammar.
	String() string

	// Redacted renders the connection string with the password masked.
	Redacted() string
}

// Factory configures GORM for one database system.
type Factory interface {
	System() System

	// ParseConnectionString parses raw in the dialect grammar.
	// It returns dbcontext.ErrInvalidFormat when the string cannot be parsed.
	ParseConnectionString(raw string) (ConnectionStringBuilder, error)

	// BuildConnectionString builds a connection string with the fixed pool defaults.
	// It returns dbcontext.ErrInvalidArgument when p.Server is empty.
	BuildConnectionString(p ConnectionParameters) (ConnectionStringBuilder, error)

	// CreateDataProvider wraps c.
	CreateDataProvider(c dbcontext.Context) DataProvider

	// ContextOptions selects this dialect for connectionString, applies commandTimeout
	// when non-nil and installs the dialect translator provider.
	ContextOptions(connectionString string, commandTimeout *time.Duration) (*dbcontext.Options, error)

	// ConfigureExecutionContext layers dialect selection and any FactoryExtension found
	// on b onto b.
	ConfigureExecutionContext(b *dbcontext.OptionsBuilder, connectionString string) *dbcontext.OptionsBuilder
}

// Feature is a set of optional DataProvider capabilities.
type Feature uint

const (
	FeatureShrink Feature = 1 << iota
	FeatureReIndex
	FeatureComputeSize
	FeatureStreamBlob
	FeatureExecuteSQLScript
	FeatureAccessIncrement
)

var featureNames = []struct {
	f    Feature
	name string
}{
	{FeatureShrink, "shrink"},
	{FeatureReIndex, "reindex"},
	{FeatureComputeSize, "compute-size"},
	{FeatureStreamBlob, "stream-blob"},
	{FeatureExecuteSQLScript, "execute-sql-script"},
	{FeatureAccessIncrement, "access-increment"},
}

func (f Feature) Has(x Feature) bool { return f&x == x }

func (f Feature) String() string {
	var names []string
	for _, fn := range featureNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// DataProvider exposes dialect-specific hooks over one execution context.
type DataProvider interface {
	Context() dbcontext.Context
	System() System
	FriendlyName() string
	Features() Feature

	// SQL helpers
	EncloseIdentifier(name string) string
	Placeholder(index int) string // Returns $1, ? etc.
	ApplyPaging(query string, skip, take int) string
	InsertSQL(table string, columns []string) string
	TruncateTableSQL(table string) string

	// Introspection and maintenance through the bound context
	ServerVersion(ctx context.Context) (string, error)
	HasDatabase(ctx context.Context, name string) (bool, error)
	HasTable(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	TableNames(ctx context.Context) ([]string, error)
	DatabaseSize(ctx context.Context) (int64, error)
	ShrinkDatabase(ctx context.Context) error
	ReIndexTables(ctx context.Context) error
	TruncateTable(ctx context.Context, table string) error
}
