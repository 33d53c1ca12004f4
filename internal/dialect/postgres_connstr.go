package dialect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"db-factory/internal/dbcontext"
)

// Canonical keys, in rendering order.
const (
	pgHost            = "host"
	pgPort            = "port"
	pgDatabase        = "dbname"
	pgUser            = "user"
	pgPassword        = "password"
	pgSSLMode         = "sslmode"
	pgApplicationName = "application_name"
	pgSearchPath      = "search_path"
	pgConnectTimeout  = "connect_timeout"
	pgPooling         = "pooling"
	pgMinConns        = "pool_min_conns"
	pgMaxConns        = "pool_max_conns"
	pgMaxConnLifetime = "pool_max_conn_lifetime"
	pgMaxConnIdleTime = "pool_max_conn_idle_time"
	pgMultiplexing    = "multiplexing"
)

var pgKeyOrder = []string{
	pgHost, pgPort, pgDatabase, pgUser, pgPassword, pgSSLMode,
	pgApplicationName, pgSearchPath, pgConnectTimeout,
}

var pgPoolKeyOrder = []string{
	pgPooling, pgMinConns, pgMaxConns, pgMaxConnLifetime, pgMaxConnIdleTime, pgMultiplexing,
}

// pgAliases maps alternative option names onto canonical keys.
var pgAliases = map[string]string{
	"server":            pgHost,
	"database":          pgDatabase,
	"username":          pgUser,
	"user id":           pgUser,
	"userid":            pgUser,
	"ssl mode":          pgSSLMode,
	"application name":  pgApplicationName,
	"timeout":           pgConnectTimeout,
	"min pool size":     pgMinConns,
	"minimum pool size": pgMinConns,
	"max pool size":     pgMaxConns,
	"maximum pool size": pgMaxConns,
}

// sslModes maps the CamelCase SSL Mode values onto libpq's spelling.
var sslModes = map[string]string{
	"disable":     "disable",
	"allow":       "allow",
	"prefer":      "prefer",
	"require":     "require",
	"verifyca":    "verify-ca",
	"verify-ca":   "verify-ca",
	"verifyfull":  "verify-full",
	"verify-full": "verify-full",
}

// PostgresConnectionString is a PostgreSQL connection string in pgx grammar.
// Settings pgx does not model as a field are kept in Extra and passed through.
type PostgresConnectionString struct {
	Host            string
	Port            uint16
	Database        string
	Username        string
	Password        string
	SSLMode         string
	ApplicationName string
	SearchPath      string
	ConnectTimeout  time.Duration
	PoolSettings
	Extra map[string]string
}

var _ ConnectionStringBuilder = (*PostgresConnectionString)(nil)

// ParsePostgresConnectionString parses a keyword/value, "Key=Value;" or postgres:// URL
// connection string.
func ParsePostgresConnectionString(raw string) (*PostgresConnectionString, error) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	parse := parseKeywordValues
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		kv, err := pq.ParseURL(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dbcontext.ErrInvalidFormat, err)
		}
		s = kv
	case hasBareSemicolon(s):
		parse = parseSemicolonPairs
	}

	pairs, err := parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dbcontext.ErrInvalidFormat, err)
	}

	cs := &PostgresConnectionString{PoolSettings: PoolSettings{Pooling: true}}
	for _, kv := range pairs {
		if err := cs.Set(kv.key, kv.value); err != nil {
			return nil, err
		}
	}

	if _, err := cs.PoolConfig(); err != nil {
		return nil, err
	}
	return cs, nil
}

// NewPostgresConnectionString builds a connection string from p with the fixed pool defaults.
func NewPostgresConnectionString(p ConnectionParameters) (*PostgresConnectionString, error) {
	if err := dbcontext.NotEmpty("server", p.Server); err != nil {
		return nil, err
	}
	return &PostgresConnectionString{
		Host:         p.Server,
		Database:     p.Database,
		Username:     p.UserID,
		Password:     p.Password,
		PoolSettings: DefaultPoolSettings(),
	}, nil
}

// PoolConfig parses the connection string into a native pgxpool configuration.
func (c *PostgresConnectionString) PoolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(c.driverString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dbcontext.ErrInvalidFormat, err)
	}
	return cfg, nil
}

func (c *PostgresConnectionString) Pool() PoolSettings { return c.PoolSettings }

func canonicalPostgresKey(key string) string {
	k := normalizeKey(key)
	if alias, ok := pgAliases[k]; ok {
		return alias
	}
	return k
}

func (c *PostgresConnectionString) Get(key string) (string, bool) {
	k := canonicalPostgresKey(key)
	var v string
	switch k {
	case pgHost:
		v = c.Host
	case pgPort:
		if c.Port != 0 {
			v = strconv.Itoa(int(c.Port))
		}
	case pgDatabase:
		v = c.Database
	case pgUser:
		v = c.Username
	case pgPassword:
		v = c.Password
	case pgSSLMode:
		v = c.SSLMode
	case pgApplicationName:
		v = c.ApplicationName
	case pgSearchPath:
		v = c.SearchPath
	case pgConnectTimeout:
		if c.ConnectTimeout > 0 {
			v = strconv.Itoa(int(c.ConnectTimeout / time.Second))
		}
	case pgPooling:
		v = strconv.FormatBool(c.Pooling)
	case pgMultiplexing:
		v = strconv.FormatBool(c.Multiplexing)
	case pgMinConns:
		if c.MinPoolSize > 0 {
			v = strconv.Itoa(c.MinPoolSize)
		}
	case pgMaxConns:
		if c.MaxPoolSize > 0 {
			v = strconv.Itoa(c.MaxPoolSize)
		}
	case pgMaxConnLifetime:
		if c.MaxConnLifetime > 0 {
			v = c.MaxConnLifetime.String()
		}
	case pgMaxConnIdleTime:
		if c.MaxConnIdleTime > 0 {
			v = c.MaxConnIdleTime.String()
		}
	default:
		v = c.Extra[k]
	}
	return v, v != ""
}

func (c *PostgresConnectionString) Set(key, value string) error {
	k := canonicalPostgresKey(key)
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s=%q: %v", dbcontext.ErrInvalidFormat, k, value, err)
	}

	switch k {
	case pgHost:
		c.Host = value
	case pgPort:
		if value == "" {
			c.Port = 0
			return nil
		}
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return invalid(err)
		}
		c.Port = uint16(n)
	case pgDatabase:
		c.Database = value
	case pgUser:
		c.Username = value
	case pgPassword:
		c.Password = value
	case pgSSLMode:
		c.SSLMode = sslModes[strings.ToLower(value)]
		if c.SSLMode == "" {
			c.SSLMode = value
		}
	case pgApplicationName:
		c.ApplicationName = value
	case pgSearchPath:
		c.SearchPath = value
	case pgConnectTimeout:
		if value == "" {
			c.ConnectTimeout = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalid(fmt.Errorf("want non-negative seconds"))
		}
		c.ConnectTimeout = time.Duration(n) * time.Second
	case pgPooling, pgMultiplexing:
		b := k == pgPooling
		if value != "" {
			v, err := strconv.ParseBool(value)
			if err != nil {
				return invalid(err)
			}
			b = v
		}
		if k == pgPooling {
			c.Pooling = b
		} else {
			c.Multiplexing = b
		}
	case pgMinConns, pgMaxConns:
		n := 0
		if value != "" {
			v, err := strconv.Atoi(value)
			if err != nil || v < 0 {
				return invalid(fmt.Errorf("want non-negative integer"))
			}
			n = v
		}
		if k == pgMinConns {
			c.MinPoolSize = n
		} else {
			c.MaxPoolSize = n
		}
	case pgMaxConnLifetime, pgMaxConnIdleTime:
		var d time.Duration
		if value != "" {
			v, err := time.ParseDuration(value)
			if err != nil {
				return invalid(err)
			}
			d = v
		}
		if k == pgMaxConnLifetime {
			c.MaxConnLifetime = d
		} else {
			c.MaxConnIdleTime = d
		}
	default:
		if strings.ContainsAny(k, " \t") {
			return invalid(fmt.Errorf("unsupported setting"))
		}
		if value == "" {
			delete(c.Extra, k)
			return nil
		}
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[k] = value
	}
	return nil
}

func (c *PostgresConnectionString) Keys() []string {
	var keys []string
	for _, kv := range c.pairs(true) {
		keys = append(keys, kv.key)
	}
	return keys
}

// pairs returns the set options in rendering order. withBuilderKeys adds the keys
// pgx does not understand (pooling, multiplexing).
func (c *PostgresConnectionString) pairs(withBuilderKeys bool) []keyValue {
	var out []keyValue
	add := func(k string) {
		if v, ok := c.Get(k); ok {
			out = append(out, keyValue{key: k, value: v})
		}
	}
	for _, k := range pgKeyOrder {
		add(k)
	}
	for _, k := range sortedKeys(c.Extra) {
		add(k)
	}
	for _, k := range pgPoolKeyOrder {
		if !withBuilderKeys && (k == pgPooling || k == pgMultiplexing) {
			continue
		}
		add(k)
	}
	return out
}

// String renders the libpq keyword/value form.
func (c *PostgresConnectionString) String() string {
	return formatKeywordValues(c.pairs(true))
}

func (c *PostgresConnectionString) Redacted() string {
	pairs := c.pairs(true)
	for i := range pairs {
		if pairs[i].key == pgPassword {
			pairs[i].value = "xxxxx"
		}
	}
	return formatKeywordValues(pairs)
}

// driverString renders the string handed to pgx.
func (c *PostgresConnectionString) driverString() string {
	return formatKeywordValues(c.pairs(false))
}
