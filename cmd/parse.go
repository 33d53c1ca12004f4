package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-factory/internal/dialect"
)

var parseCmd = &cobra.Command{
	Use:   "parse <connection-string>",
	Short: "Parse a connection string and print its options",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dialect.GetFactory(viper.GetString("parse.driver"), Logger)
		if err != nil {
			return err
		}

		cs, err := f.ParseConnectionString(args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, k := range cs.Keys() {
			v, _ := cs.Get(k)
			if k == "password" {
				v = "xxxxx"
			}
			fmt.Fprintf(w, "%s\t%s\n", k, v)
		}
		pool := cs.Pool()
		fmt.Fprintf(w, "(pool)\tpooling=%t min=%d max=%d multiplexing=%t\n",
			pool.Pooling, pool.MinPoolSize, pool.MaxPoolSize, pool.Multiplexing)
		return w.Flush()
	},
}

func init() {
	RootCmd.AddCommand(parseCmd)

	parseCmd.Flags().String("driver", "postgres", "Database system (postgres, mysql, sqlserver)")
	viper.BindPFlag("parse.driver", parseCmd.Flags().Lookup("driver"))
}
