package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
	Logger   *slog.Logger
)

var RootCmd = &cobra.Command{
	Use:   "db-factory",
	Short: "Build connection strings and execution contexts for SQL databases",
	Long: `
  ____  ____    _____ _    ____ _____ ___  ______   __
 |  _ \| __ )  |  ___/ \  / ___|_   _/ _ \|  _ \ \ / /
 | | | |  _ \  | |_ / _ \| |     | || | | | |_) \ V /
 | |_| | |_) | |  _/ ___ \ |___  | || |_| |  _ < | |
 |____/|____/  |_|/_/   \_\____| |_| \___/|_| \_\|_|

DB FACTORY - Connection strings, pools and contexts for PostgreSQL, MySQL and SQL Server
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(viper.GetString("log.level"))
		if err != nil {
			return err
		}
		Logger = newLogger(level)
		slog.SetDefault(Logger)

		if f := viper.ConfigFileUsed(); f != "" {
			Logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-factory.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetDefault("log.level", "info")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Executable directory first, then the working directory.
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")

		viper.SetConfigName("db-factory")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBFACTORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; commands that need one say so.
	_ = viper.ReadInConfig()
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level:      level,
		TimeFormat: "15:04:05.000",
	}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
