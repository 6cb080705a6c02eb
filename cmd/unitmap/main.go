package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/engine"
	"github.com/gyaneshwarpardhi/unitmap/internal/publish"
)

const version = "0.1.0-dev"

// envConfig names the config file when --config is not given.
const envConfig = "UNITMAP_CONFIG"

type globalOpts struct {
	configPath string
	logLevel   string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}
	root := &cobra.Command{
		Use:           "unitmap",
		Short:         "Decide which assets get their own build unit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts.logLevel)
		},
	}

	defaultConfig := os.Getenv(envConfig)
	if defaultConfig == "" {
		defaultConfig = "unitmap.yaml"
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to the build config (env "+envConfig+")")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newPlanCmd(opts))
	root.AddCommand(newNamesCmd(opts))
	root.AddCommand(newBuildCmd(opts))
	root.AddCommand(newServeCmd(opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "unitmap "+version)
		},
	}
}

func setupLogging(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// openEngine loads and validates the config and wires an Engine for it.
func openEngine(opts *globalOpts) (*config.Loader, *engine.Engine, error) {
	loader, err := config.NewLoader(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}

	deps := engine.Deps{Logger: slog.Default()}
	if s3 := cfg.Publish.S3; s3 != nil {
		pub, err := publish.NewS3Publisher(*s3, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		deps.Publisher = pub
	}
	return loader, engine.New(cfg, deps), nil
}
