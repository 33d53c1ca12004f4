package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"db-factory/internal/dbcontext"
	"db-factory/internal/dialect"
)

var (
	checkDSN     string
	checkDriver  string
	checkTimeout time.Duration
	checkTables  bool
)

// appContext is the execution context the CLI works with.
type appContext struct {
	*dbcontext.DbContext
}

func newRegistry() *dbcontext.Registry {
	reg := dbcontext.NewRegistry()
	dbcontext.Register(reg, func(o *dbcontext.Options) (*appContext, error) {
		c, err := dbcontext.New(o)
		if err != nil {
			return nil, err
		}
		return &appContext{c}, nil
	})
	return reg
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Open an execution context and verify the server is reachable",
	Long: `Opens an execution context for the active database in the config file,
or for --dsn when given, and prints the server version and effective options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var timeout *time.Duration
		if cmd.Flags().Changed("timeout") {
			timeout = &checkTimeout
		}

		f, c, err := openContext(newRegistry(), timeout)
		if err != nil {
			return err
		}
		defer c.Close()

		return runCheck(cmd.Context(), cmd.OutOrStdout(), f.CreateDataProvider(c))
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkDSN, "dsn", "", "Connection string (overrides the config file)")
	checkCmd.Flags().StringVar(&checkDriver, "driver", "postgres", "Database system for --dsn")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 0, "Command timeout for --dsn")
	checkCmd.Flags().BoolVar(&checkTables, "tables", false, "List the tables of the current schema")
}

// openContext builds the context from --dsn, or from the active config entry and its settings.
func openContext(reg *dbcontext.Registry, timeout *time.Duration) (dialect.Factory, *appContext, error) {
	if checkDSN != "" {
		f, err := dialect.GetFactory(checkDriver, Logger)
		if err != nil {
			return nil, nil, err
		}
		c, err := dialect.CreateExecutionContext[*appContext](f, reg, checkDSN, timeout)
		if err != nil {
			return nil, nil, err
		}
		return f, c, nil
	}

	cfg, err := GetActiveDBConfig()
	if err != nil {
		return nil, nil, err
	}
	f, err := dialect.GetFactory(cfg.Driver, Logger)
	if err != nil {
		return nil, nil, err
	}
	ext, err := cfg.Extension()
	if err != nil {
		return nil, nil, err
	}

	b := dbcontext.NewOptionsBuilder().
		WithLogger(Logger).
		WithExtension(ext)
	b = f.ConfigureExecutionContext(b, cfg.DSN)

	c, err := dbcontext.Construct[*appContext](reg, b.Options())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}
	return f, c, nil
}

func runCheck(ctx context.Context, out io.Writer, p dialect.DataProvider) error {
	version, err := p.ServerVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Connected to %s\n", p.FriendlyName())
	fmt.Fprintf(out, "  version:   %s\n", version)
	fmt.Fprintf(out, "  features:  %s\n", p.Features())
	printOptions(out, p.Context().Options())

	if p.Features().Has(dialect.FeatureComputeSize) {
		size, err := p.DatabaseSize(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  size:      %d bytes\n", size)
	}

	if checkTables {
		names, err := p.TableNames(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  tables:    %d\n", len(names))
		for _, n := range names {
			fmt.Fprintf(out, "    %s\n", n)
		}
	}
	return nil
}

func printOptions(out io.Writer, o *dbcontext.Options) {
	r := o.Relational()
	fmt.Fprintf(out, "  provider:  %s\n", o.Provider().Name())
	if tp := o.TranslatorProvider(); tp != nil {
		fmt.Fprintf(out, "  translate: %s\n", tp.Name())
	}
	fmt.Fprintf(out, "  timeout:   %s\n", orDefault(r.CommandTimeout))
	fmt.Fprintf(out, "  batch:     min=%s max=%s\n", orDefault(r.MinBatchSize), orDefault(r.MaxBatchSize))
	fmt.Fprintf(out, "  splitting: %s\n", orDefault(r.QuerySplitting))
	fmt.Fprintf(out, "  rel nulls: %s\n", orDefault(r.UseRelationalNulls))
}

func orDefault[T any](p *T) string {
	if p == nil {
		return "(default)"
	}
	return fmt.Sprint(*p)
}
