package dbcontext

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"gorm.io/gorm"
)

// QuerySplittingBehavior controls how related collections are loaded.
type QuerySplittingBehavior int

const (
	// SingleQuery loads related data with joins in one statement.
	SingleQuery QuerySplittingBehavior = iota
	// SplitQuery loads each association with its own statement.
	SplitQuery
)

func (b QuerySplittingBehavior) String() string {
	switch b {
	case SingleQuery:
		return "single"
	case SplitQuery:
		return "split"
	default:
		return fmt.Sprintf("QuerySplittingBehavior(%d)", int(b))
	}
}

// ParseQuerySplittingBehavior accepts "single"/"singlequery" and "split"/"splitquery".
func ParseQuerySplittingBehavior(s string) (QuerySplittingBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "singlequery", "single_query":
		return SingleQuery, nil
	case "split", "splitquery", "split_query":
		return SplitQuery, nil
	default:
		return SingleQuery, fmt.Errorf("%w: unknown query splitting behavior %q", ErrInvalidArgument, s)
	}
}

// Provider selects a database system for an execution context.
type Provider interface {
	// Name returns the database system name, e.g. "postgres".
	Name() string

	// Open returns a GORM dialector for connectionString. It must not dial the server.
	Open(connectionString string, logger *slog.Logger) (gorm.Dialector, error)
}

// RelationalOptions holds the driver-level settings of an execution context.
// A nil field means the driver default applies.
type RelationalOptions struct {
	CommandTimeout     *time.Duration
	MinBatchSize       *int
	MaxBatchSize       *int
	QuerySplitting     *QuerySplittingBehavior
	UseRelationalNulls *bool
}

func (r RelationalOptions) clone() RelationalOptions {
	return RelationalOptions{
		CommandTimeout:     clonePtr(r.CommandTimeout),
		MinBatchSize:       clonePtr(r.MinBatchSize),
		MaxBatchSize:       clonePtr(r.MaxBatchSize),
		QuerySplitting:     clonePtr(r.QuerySplitting),
		UseRelationalNulls: clonePtr(r.UseRelationalNulls),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Options is the configuration consumed by execution-context constructors.
// Values returned by OptionsBuilder.Options are snapshots and are not changed by later builder calls.
type Options struct {
	provider         Provider
	connectionString string
	relational       RelationalOptions
	translators      TranslatorProvider
	extensions       map[string]Extension
	logger           *slog.Logger
}

// Provider returns the selected database provider, or nil if none was selected.
func (o *Options) Provider() Provider { return o.provider }

// ConnectionString returns the connection string handed to the provider.
func (o *Options) ConnectionString() string { return o.connectionString }

// Relational returns a copy of the relational settings.
func (o *Options) Relational() RelationalOptions { return o.relational.clone() }

// TranslatorProvider returns the method-call translator provider.
func (o *Options) TranslatorProvider() TranslatorProvider { return o.translators }

// Logger returns the configured logger, or slog.Default().
func (o *Options) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// Extension returns the extension registered under name.
func (o *Options) Extension(name string) (Extension, bool) {
	ext, ok := o.extensions[name]
	return ext, ok
}

func (o *Options) clone() *Options {
	c := *o
	c.relational = o.relational.clone()
	c.extensions = maps.Clone(o.extensions)
	return &c
}

// OptionsBuilder assembles Options.
type OptionsBuilder struct {
	opts Options
}

// NewOptionsBuilder returns an empty builder.
func NewOptionsBuilder() *OptionsBuilder {
	return &OptionsBuilder{}
}

// UseProvider selects provider and connection string. Relational settings start from
// the driver defaults on every call; configure may then set them.
func (b *OptionsBuilder) UseProvider(provider Provider, connectionString string, configure func(*RelationalOptionsBuilder)) *OptionsBuilder {
	b.opts.provider = provider
	b.opts.connectionString = connectionString
	b.opts.relational = RelationalOptions{}
	if configure != nil {
		configure(&RelationalOptionsBuilder{opts: &b.opts.relational})
	}
	return b
}

// ReplaceTranslatorProvider installs tp as the method-call translator provider.
func (b *OptionsBuilder) ReplaceTranslatorProvider(tp TranslatorProvider) *OptionsBuilder {
	b.opts.translators = tp
	return b
}

// WithExtension attaches ext, replacing any extension with the same name.
func (b *OptionsBuilder) WithExtension(ext Extension) *OptionsBuilder {
	if b.opts.extensions == nil {
		b.opts.extensions = make(map[string]Extension)
	}
	b.opts.extensions[ext.ExtensionName()] = ext
	return b
}

// WithLogger sets the logger used by contexts built from these options.
func (b *OptionsBuilder) WithLogger(l *slog.Logger) *OptionsBuilder {
	b.opts.logger = l
	return b
}

// Options returns a snapshot of the current configuration.
func (b *OptionsBuilder) Options() *Options {
	return b.opts.clone()
}

// RelationalOptionsBuilder sets driver-level options inside UseProvider.
type RelationalOptionsBuilder struct {
	opts *RelationalOptions
}

func (r *RelationalOptionsBuilder) CommandTimeout(d time.Duration) *RelationalOptionsBuilder {
	r.opts.CommandTimeout = &d
	return r
}

func (r *RelationalOptionsBuilder) MinBatchSize(n int) *RelationalOptionsBuilder {
	r.opts.MinBatchSize = &n
	return r
}

func (r *RelationalOptionsBuilder) MaxBatchSize(n int) *RelationalOptionsBuilder {
	r.opts.MaxBatchSize = &n
	return r
}

func (r *RelationalOptionsBuilder) UseQuerySplittingBehavior(b QuerySplittingBehavior) *RelationalOptionsBuilder {
	r.opts.QuerySplitting = &b
	return r
}

func (r *RelationalOptionsBuilder) UseRelationalNulls(v bool) *RelationalOptionsBuilder {
	r.opts.UseRelationalNulls = &v
	return r
}
