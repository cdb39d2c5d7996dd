package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0-dev"

var (
	cfgFile string
	verbose bool
	logJSON bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vsat",
	Short: "vsat - vendor security assessment from questionnaires and evidence",
	Long: `vsat maps vendor security questionnaire questions onto collected evidence
(documents, web search results, tickets, analyst notes) and produces an
explainable risk report.

Each question gets a confidence tier (HIGH, MEDIUM, LOW, NOT_FOUND) backed
by the evidence that supports it. Missing, weak and contradictory evidence
is reported as gaps with suggested follow-up actions.

vsat reports how well claims are evidenced. It does not certify a vendor.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		setupLogger(os.Stderr, level)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vsat %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vsat/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().String("provider", "", "embedding provider (local, openai, ollama, none)")
	rootCmd.PersistentFlags().String("model", "", "embedding model name")
	rootCmd.PersistentFlags().String("store", "", "assessment database (sqlite path or postgres:// URL)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("embedding.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("embedding.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("store.dsn", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".vsat"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// VSAT_EMBEDDING_PROVIDER overrides embedding.provider, and so on
	viper.SetEnvPrefix("VSAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func setupLogger(w io.Writer, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
