package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justyntemme/orbit/internal/app"
	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/logging"
)

type rootFlags struct {
	configPath string
	debug      bool
	library    string
	locations  []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "orbit",
		Short:        "Browse a library's locations and manage its key vault",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			manageConsole(flags.debug)

			cfg, cfgErr, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app.Main(cfg, cfgErr)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: ./config.yaml or the user config dir)")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.StringVar(&flags.library, "library", "", "library id (uuid)")
	cmd.Flags().StringSliceVar(&flags.locations, "location", nil, "additional directory to index (repeatable)")

	cmd.AddCommand(newSetVaultCmd(flags), newInitConfigCmd())
	return cmd
}

// loadConfig reads the configuration, applies flag overrides and starts
// logging. A file that failed to parse is returned as cfgErr with defaults
// in use; err is fatal.
func loadConfig(flags *rootFlags) (cfg config.Config, cfgErr error, err error) {
	m := config.NewManager()
	if err := m.Load(flags.configPath); err != nil {
		return config.Config{}, nil, err
	}
	cfg = m.Get()
	cfgErr = m.ParseError()

	if flags.library != "" {
		if _, err := uuid.Parse(flags.library); err != nil {
			return config.Config{}, nil, fmt.Errorf("--library %q: %w", flags.library, err)
		}
		cfg.LibraryID = flags.library
	}
	for _, p := range flags.locations {
		abs, err := filepath.Abs(p)
		if err != nil {
			return config.Config{}, nil, fmt.Errorf("--location %q: %w", p, err)
		}
		cfg.Locations = append(cfg.Locations, config.LocationConfig{Name: filepath.Base(abs), Path: abs})
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	level := cfg.Log.Level
	if flags.debug {
		level = "debug"
	}
	if err := logging.Init(logging.Config{Level: level, Format: cfg.Log.Format, OutputPath: cfg.Log.Output}); err != nil {
		return config.Config{}, nil, fmt.Errorf("init logging: %w", err)
	}
	debug.EnableNamed(cfg.Debug)

	log := logging.Named("main")
	if path := m.Path(); path != "" {
		log.Info("config loaded", zap.String("path", path))
	}
	if cfgErr != nil {
		log.Warn("config file ignored, using defaults", zap.Error(cfgErr))
	}
	return cfg, cfgErr, nil
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config.yaml, backing up an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := config.GenerateConfig()
			if err != nil {
				return err
			}
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "previous config saved to %s\n", backup)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(config.Dir(), "config.yaml"))
			return nil
		},
	}
}
