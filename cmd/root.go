package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "SITEAUDIT"

var cfgFile string
var verbose bool

// AppContext carries what every subcommand needs after PersistentPreRunE.
type AppContext struct {
	Logger     *zap.SugaredLogger
	ResultsDir string
	Config     *CLIConfig
}

type appContextKey struct{}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if cmd != nil && cmd.Context() != nil {
		if appCtx, ok := cmd.Context().Value(appContextKey{}).(*AppContext); ok {
			return appCtx
		}
	}
	return globalAppContext
}

var rootCmd = &cobra.Command{
	Use:           "siteaudit",
	Short:         "Audit a web page for broken links, disabled buttons, layout and passive security issues",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}

		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		applyConfigDefaults(cmd)

		resultsDir := cliConfig.ResultsDir
		if abs, err := filepath.Abs(resultsDir); err == nil {
			resultsDir = abs
		}
		l.Debugw("configuration loaded", "config_file", viper.ConfigFileUsed(), "results_dir", resultsDir)

		storeAppContext(cmd, &AppContext{
			Logger:     l,
			ResultsDir: resultsDir,
			Config:     cliConfig,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appCtx := getAppContext(cmd); appCtx != nil && appCtx.Logger != nil {
			_ = appCtx.Logger.Sync()
		}
	},
}

// Execute runs the root command and exits 1 on any returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		os.Exit(1)
	}
}

// initConfig layers defaults, the config file and SITEAUDIT_* variables.
func initConfig() error {
	registerConfigDefaults(viper.GetViper())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("siteaudit")
		viper.SetConfigType("yaml")
		for _, dir := range configSearchPaths() {
			viper.AddConfigPath(dir)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./siteaudit.yaml or $XDG_CONFIG_HOME/siteaudit/siteaudit.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable development logging")
	rootCmd.PersistentFlags().StringVar(&cliConfig.ResultsDir, "results-dir", defaultResultsDir, "directory that receives one folder per run label")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
