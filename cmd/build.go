package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-factory/internal/dialect"
)

var (
	buildParams dialect.ConnectionParameters
	showSecret  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a connection string from its parts",
	Example: `  db-factory build --driver postgres --server db.local --database shop --user app --password secret
  db-factory build --driver mysql --server 10.0.0.5:3307 --database shop
  db-factory build --driver sqlserver --server db.local,1433 --database shop --user sa`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dialect.GetFactory(viper.GetString("build.driver"), Logger)
		if err != nil {
			return err
		}

		cs, err := f.BuildConnectionString(buildParams)
		if err != nil {
			return err
		}

		if showSecret {
			fmt.Fprintln(cmd.OutOrStdout(), cs.String())
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), cs.Redacted())
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("driver", "postgres", "Database system (postgres, mysql, sqlserver)")
	buildCmd.Flags().StringVar(&buildParams.Server, "server", "", "Server host, optionally with a port (host:port, or host,port for sqlserver)")
	buildCmd.Flags().StringVar(&buildParams.Database, "database", "", "Database name")
	buildCmd.Flags().StringVar(&buildParams.UserID, "user", "", "User name")
	buildCmd.Flags().StringVar(&buildParams.Password, "password", "", "Password")
	buildCmd.Flags().BoolVar(&showSecret, "show-password", false, "Print the password instead of masking it")

	viper.BindPFlag("build.driver", buildCmd.Flags().Lookup("driver"))
}
