package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/napolitain/clicker/internal/config"
	"github.com/napolitain/clicker/internal/loader"
	"github.com/napolitain/clicker/internal/models"
)

var (
	configFile  string
	catalogFile string
	verbose     bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clicker",
		Short: "Incremental clicker game for the terminal",
		Long: `Click for currency, buy generators that earn while you wait, and
stack upgrades that multiply everything. Includes catalog and build-order
planning tools.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "Path to catalog file (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newPlayCmd(), newCatalogCmd(), newPlanCmd(), newSaveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	if catalogFile != "" {
		cfg.CatalogPath = catalogFile
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	// The game screen owns the terminal
	if cmd.Name() == "play" {
		zcfg.OutputPaths = []string{cfg.Log.File}
		zcfg.ErrorOutputPaths = []string{cfg.Log.File}
	}

	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func loadCatalog() (*models.Catalog, error) {
	catalog, err := loader.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Catalog loaded",
		zap.String("path", cfg.CatalogPath),
		zap.Int("generators", len(catalog.Generators)),
		zap.Int("upgrades", len(catalog.Upgrades)))
	return catalog, nil
}
