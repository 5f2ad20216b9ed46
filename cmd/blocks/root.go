package main

import (
	"fmt"
	"os"

	"github.com/aretw0/blocks/internal/cli"
	"github.com/aretw0/blocks/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blocks",
	Short: "blocks is a page designer built from nested schema blocks",
	Long: `blocks assembles pages out of tables, forms, charts, markdown and fields.
Every choice mutates a schema tree that is persisted to the configured store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Config file (.yaml, .toml or .json)")
	f.String("store", "", "Page store: memory, file, redis or mongo")
	f.String("store-path", "", "Directory of the file store")
	f.String("redis-addr", "", "Redis address for the redis store")
	f.String("mongo-uri", "", "MongoDB URI for the mongo store")
	f.String("log-format", "", "Log format: text or json")
	f.Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Read(path)
	if err != nil {
		return cfg, err
	}

	flags := map[string]*string{
		"store":      &cfg.Store.Kind,
		"store-path": &cfg.Store.Path,
		"redis-addr": &cfg.Store.RedisAddr,
		"mongo-uri":  &cfg.Store.MongoURI,
		"log-format": &cfg.Log.Format,
	}
	for name, dst := range flags {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	if cmd.Flags().Lookup("addr") != nil && cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}
	return cfg, cfg.Validate()
}

// newApp builds the engine for a command. Logs go to stderr so stdout stays
// free for command output.
func newApp(cmd *cobra.Command) (*cli.App, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(os.Stderr, cfg.Log, debug)

	app, err := cli.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, cfg, err
	}
	return app, cfg, nil
}
