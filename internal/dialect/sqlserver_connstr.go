package dialect

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/microsoft/go-mssqldb/msdsn"

	"db-factory/internal/dbcontext"
)

// Builder-only keys; go-mssqldb ignores them so they are stripped before dialing.
const (
	msPooling     = "pooling"
	msMinPoolSize = "min pool size"
	msMaxPoolSize = "max pool size"
)

var msKeyOrder = []string{msdsn.Server, msdsn.Port, msdsn.Database, msdsn.UserID, msdsn.Password}

var msPoolKeyOrder = []string{msPooling, msMinPoolSize, msMaxPoolSize}

// msAliases extends the driver's own ADO synonyms with the names used by other dialects.
var msAliases = map[string]string{
	"host":              msdsn.Server,
	"data source":       msdsn.Server,
	"address":           msdsn.Server,
	"network address":   msdsn.Server,
	"addr":              msdsn.Server,
	"dbname":            msdsn.Database,
	"initial catalog":   msdsn.Database,
	"user":              msdsn.UserID,
	"username":          msdsn.UserID,
	"uid":               msdsn.UserID,
	"userid":            msdsn.UserID,
	"pwd":               msdsn.Password,
	"application name":  msdsn.AppName,
	"timeout":           msdsn.ConnectionTimeout,
	"connect timeout":   msdsn.ConnectionTimeout,
	"minimum pool size": msMinPoolSize,
	"maximum pool size": msMaxPoolSize,
}

// SQLServerConnectionString is an ADO-style SQL Server connection string as read by go-mssqldb.
type SQLServerConnectionString struct {
	params map[string]string
	PoolSettings
}

var _ ConnectionStringBuilder = (*SQLServerConnectionString)(nil)

// ParseSQLServerConnectionString parses the ADO, sqlserver:// URL or odbc: forms.
func ParseSQLServerConnectionString(raw string) (*SQLServerConnectionString, error) {
	cfg, err := msdsn.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dbcontext.ErrInvalidFormat, err)
	}

	cs := &SQLServerConnectionString{
		params:       map[string]string{},
		PoolSettings: PoolSettings{Pooling: true},
	}
	for _, k := range sortedKeys(cfg.Parameters) {
		if err := cs.Set(k, cfg.Parameters[k]); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// NewSQLServerConnectionString builds a connection string from p with the fixed pool defaults.
func NewSQLServerConnectionString(p ConnectionParameters) (*SQLServerConnectionString, error) {
	if err := dbcontext.NotEmpty("server", p.Server); err != nil {
		return nil, err
	}
	cs := &SQLServerConnectionString{
		params:       map[string]string{},
		PoolSettings: DefaultPoolSettings(),
	}
	for k, v := range map[string]string{
		msdsn.Server:   p.Server,
		msdsn.Database: p.Database,
		msdsn.UserID:   p.UserID,
		msdsn.Password: p.Password,
	} {
		if err := cs.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// Config parses the driver part of the string into a go-mssqldb configuration.
func (c *SQLServerConnectionString) Config() (msdsn.Config, error) {
	cfg, err := msdsn.Parse(c.driverString())
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", dbcontext.ErrInvalidFormat, err)
	}
	return cfg, nil
}

func (c *SQLServerConnectionString) Pool() PoolSettings { return c.PoolSettings }

func canonicalSQLServerKey(key string) string {
	k := normalizeKey(key)
	if alias, ok := msAliases[k]; ok {
		return alias
	}
	return k
}

func (c *SQLServerConnectionString) Get(key string) (string, bool) {
	var v string
	switch k := canonicalSQLServerKey(key); k {
	case msPooling:
		v = strconv.FormatBool(c.Pooling)
	case msMinPoolSize:
		if c.MinPoolSize > 0 {
			v = strconv.Itoa(c.MinPoolSize)
		}
	case msMaxPoolSize:
		if c.MaxPoolSize > 0 {
			v = strconv.Itoa(c.MaxPoolSize)
		}
	default:
		v = c.params[k]
	}
	return v, v != ""
}

// Set stores value under key. Free-form values such as passwords are kept verbatim.
func (c *SQLServerConnectionString) Set(key, value string) error {
	k := canonicalSQLServerKey(key)
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s=%q: %v", dbcontext.ErrInvalidFormat, k, value, err)
	}

	switch k {
	case msdsn.Server, msdsn.Port, msPooling, msMinPoolSize, msMaxPoolSize:
		value = strings.TrimSpace(value)
	}

	switch k {
	case msPooling:
		c.Pooling = true
		if value != "" {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return invalid(err)
			}
			c.Pooling = b
		}
		return nil
	case msMinPoolSize, msMaxPoolSize:
		n := 0
		if value != "" {
			v, err := strconv.Atoi(value)
			if err != nil || v < 0 {
				return invalid(fmt.Errorf("want non-negative integer"))
			}
			n = v
		}
		if k == msMinPoolSize {
			c.MinPoolSize = n
		} else {
			c.MaxPoolSize = n
		}
		return nil
	case msdsn.Port:
		if value != "" {
			if _, err := strconv.ParseUint(value, 10, 16); err != nil {
				return invalid(err)
			}
		}
	case msdsn.Server:
		// "host,port" is split the same way the driver does it.
		if host, port, ok := strings.Cut(value, ","); ok && port != "" {
			if err := c.Set(msdsn.Port, port); err != nil {
				return err
			}
			value = host
		}
	}

	if value == "" {
		delete(c.params, k)
		return nil
	}
	if c.params == nil {
		c.params = map[string]string{}
	}
	c.params[k] = value
	return nil
}

func (c *SQLServerConnectionString) Keys() []string {
	var keys []string
	for _, kv := range c.pairs(true) {
		keys = append(keys, kv.key)
	}
	return keys
}

func (c *SQLServerConnectionString) pairs(withBuilderKeys bool) []keyValue {
	var out []keyValue
	add := func(k string) {
		if v, ok := c.Get(k); ok {
			out = append(out, keyValue{key: k, value: v})
		}
	}
	for _, k := range msKeyOrder {
		add(k)
	}
	for _, k := range sortedKeys(c.params) {
		if !slices.Contains(msKeyOrder, k) {
			add(k)
		}
	}
	if withBuilderKeys {
		for _, k := range msPoolKeyOrder {
			add(k)
		}
	}
	return out
}

// quoteADOValue double-quotes v when the driver's splitter would otherwise cut or trim it.
func quoteADOValue(v string) string {
	if !strings.ContainsAny(v, `;"`) && strings.TrimSpace(v) == v {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func formatADO(pairs []keyValue) string {
	var b strings.Builder
	for _, kv := range pairs {
		b.WriteString(kv.key)
		b.WriteByte('=')
		b.WriteString(quoteADOValue(kv.value))
		b.WriteByte(';')
	}
	return b.String()
}

// String renders the ADO form including the pool keys.
func (c *SQLServerConnectionString) String() string { return formatADO(c.pairs(true)) }

func (c *SQLServerConnectionString) Redacted() string {
	pairs := c.pairs(true)
	for i := range pairs {
		if pairs[i].key == msdsn.Password {
			pairs[i].value = "xxxxx"
		}
	}
	return formatADO(pairs)
}

func (c *SQLServerConnectionString) driverString() string { return formatADO(c.pairs(false)) }
