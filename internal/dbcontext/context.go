package dbcontext

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Context is a unit of work bound to one database configuration.
type Context interface {
	DB() *gorm.DB
	Session(ctx context.Context) (*gorm.DB, context.CancelFunc)
	Options() *Options
	Close() error
}

var _ Context = (*DbContext)(nil)

// DbContext is the base execution context. Application contexts embed it.
type DbContext struct {
	db   *gorm.DB
	opts *Options
	log  *slog.Logger
}

// New opens a DbContext from opts. The server is not contacted.
func New(opts *Options) (*DbContext, error) {
	if opts == nil || opts.Provider() == nil {
		return nil, fmt.Errorf("%w: options have no provider", ErrInvalidArgument)
	}
	if err := NotEmpty("connection string", opts.ConnectionString()); err != nil {
		return nil, err
	}

	provider := opts.Provider()
	log := opts.Logger().With("provider", provider.Name())

	dialector, err := provider.Open(opts.ConnectionString(), log)
	if err != nil {
		return nil, err
	}

	cfg := &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               newGormLogger(log),
	}
	if n := opts.relational.MaxBatchSize; n != nil && *n > 0 {
		cfg.CreateBatchSize = *n
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		closePool(db, dialector)
		return nil, fmt.Errorf("open %s context: %w", provider.Name(), err)
	}

	log.Debug("context opened",
		"command_timeout", durationAttr(opts.relational.CommandTimeout),
		"translators", translatorName(opts.translators))

	return &DbContext{db: db, opts: opts, log: log}, nil
}

// DB returns the underlying GORM handle without a deadline.
func (c *DbContext) DB() *gorm.DB { return c.db }

// Options returns the options the context was built from.
func (c *DbContext) Options() *Options { return c.opts }

func (c *DbContext) Logger() *slog.Logger { return c.log }

// Close releases the connection pool.
func (c *DbContext) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CommandTimeout returns the configured command timeout. ok is false when the driver default applies.
func (c *DbContext) CommandTimeout() (d time.Duration, ok bool) {
	if t := c.opts.relational.CommandTimeout; t != nil {
		return *t, true
	}
	return 0, false
}

// Session returns a handle bound to ctx. A positive command timeout becomes the deadline;
// the caller must call cancel when done.
func (c *DbContext) Session(ctx context.Context) (tx *gorm.DB, cancel context.CancelFunc) {
	if d, ok := c.CommandTimeout(); ok && d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
		return c.db.WithContext(ctx), cancel
	}
	return c.db.WithContext(ctx), func() {}
}

// Call translates a method call through the installed translator provider.
func (c *DbContext) Call(method string, args ...any) (clause.Expression, error) {
	tp := c.opts.translators
	if tp == nil {
		tp = NewTranslatorChain("standard", StandardTranslator)
	}
	tc := TranslationContext{}
	if v := c.opts.relational.UseRelationalNulls; v != nil {
		tc.UseRelationalNulls = *v
	}
	return tp.Translate(tc, method, args...)
}

// Include loads association on tx. SingleQuery uses a join, which GORM supports for
// to-one associations only; SplitQuery and the default use a separate preload query.
func (c *DbContext) Include(tx *gorm.DB, association string) *gorm.DB {
	if b := c.opts.relational.QuerySplitting; b != nil && *b == SingleQuery {
		return tx.Joins(association)
	}
	return tx.Preload(association)
}

// CreateBatch inserts the elements of the slice values. Fewer rows than MinBatchSize are
// inserted one statement at a time inside a transaction; otherwise rows are sent in
// batches of MaxBatchSize.
func (c *DbContext) CreateBatch(ctx context.Context, values any) error {
	rv := reflect.Indirect(reflect.ValueOf(values))
	if rv.Kind() != reflect.Slice {
		return fmt.Errorf("%w: CreateBatch needs a slice, got %T", ErrInvalidArgument, values)
	}
	n := rv.Len()
	if n == 0 {
		return nil
	}

	tx, cancel := c.Session(ctx)
	defer cancel()

	if minSize := c.opts.relational.MinBatchSize; minSize != nil && n < *minSize {
		return tx.Transaction(func(tx *gorm.DB) error {
			for i := 0; i < n; i++ {
				item := rv.Index(i)
				if item.Kind() != reflect.Pointer {
					item = item.Addr()
				}
				if err := tx.Create(item.Interface()).Error; err != nil {
					return fmt.Errorf("insert row %d: %w", i, err)
				}
			}
			return nil
		})
	}

	size := n
	if maxSize := c.opts.relational.MaxBatchSize; maxSize != nil && *maxSize > 0 {
		size = *maxSize
	}
	return tx.CreateInBatches(values, size).Error
}

// closePool releases the pool a provider opened for a context that failed to initialize.
func closePool(db *gorm.DB, d gorm.Dialector) {
	var pool any
	if db != nil && db.ConnPool != nil {
		pool = db.ConnPool
	} else if v := reflect.Indirect(reflect.ValueOf(d)); v.Kind() == reflect.Struct {
		if sf, ok := v.Type().FieldByName("Conn"); ok {
			if f, err := v.FieldByIndexErr(sf.Index); err == nil && f.CanInterface() {
				pool = f.Interface()
			}
		}
	}
	if c, ok := pool.(io.Closer); ok {
		_ = c.Close()
	}
}

func durationAttr(d *time.Duration) string {
	if d == nil {
		return "default"
	}
	return d.String()
}

func translatorName(tp TranslatorProvider) string {
	if tp == nil {
		return "standard"
	}
	return tp.Name()
}

// slogWriter routes GORM log lines into slog.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func newGormLogger(log *slog.Logger) logger.Interface {
	return logger.New(slogWriter{log: log.With("component", "gorm")}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
