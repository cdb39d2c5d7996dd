package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/niana0/vendor-security-assessment-tool/internal/llm"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/pipeline"
	"github.com/niana0/vendor-security-assessment-tool/internal/similarity"
)

// loadConfig layers the config file and viper overrides (env, flags) over the defaults
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyOverrides copies scalar settings from viper. Tables and maps only come from the file.
func applyOverrides(cfg *model.Config) {
	if viper.IsSet("workers") {
		cfg.Match.Workers = viper.GetInt("workers")
	}
	if viper.IsSet("embedding.provider") {
		cfg.Embedding.Provider = viper.GetString("embedding.provider")
	}
	if viper.IsSet("embedding.model") {
		cfg.Embedding.Model = viper.GetString("embedding.model")
	}
	if viper.IsSet("embedding.base_url") {
		cfg.Embedding.BaseURL = viper.GetString("embedding.base_url")
	}
	if viper.IsSet("embedding.api_key") {
		cfg.Embedding.APIKey = viper.GetString("embedding.api_key")
	}
	if viper.IsSet("embedding.http_proxy") {
		cfg.Embedding.HTTPProxy = viper.GetString("embedding.http_proxy")
	}
	if viper.IsSet("embedding.https_proxy") {
		cfg.Embedding.HTTPSProxy = viper.GetString("embedding.https_proxy")
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.ttl") {
		cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	}
	if viper.IsSet("store.dsn") {
		cfg.Store.DSN = viper.GetString("store.dsn")
	}
	if viper.IsSet("server.addr") {
		cfg.Server.Addr = viper.GetString("server.addr")
	}
	if viper.IsSet("server.cors_origins") {
		cfg.Server.CORSOrigins = viper.GetStringSlice("server.cors_origins")
	}
}

// buildPipeline wires the similarity backend selected by cfg into a pipeline
func buildPipeline(cfg model.Config) (*pipeline.Pipeline, error) {
	tokenizer := similarity.NewTokenizer(cfg.Tables.StopWords)
	embedder, err := llm.NewBackend(cfg, tokenizer)
	if err != nil {
		return nil, fmt.Errorf("embedding backend: %w", err)
	}
	p, err := pipeline.New(cfg, tokenizer, embedder)
	if err != nil {
		return nil, err
	}
	slog.Debug("pipeline ready", "backend", p.Backend(), "workers", cfg.Match.Workers)
	return p, nil
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage vsat configuration",
	Long: `Manage vsat configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (VSAT_*, e.g. VSAT_EMBEDDING_PROVIDER)
3. Config file (~/.vsat/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if path := viper.ConfigFileUsed(); path != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Create ~/.vsat/config.yaml (or the --config path) holding every default threshold and lookup table.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath := cfgFile
		if configPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("find home directory: %w", err)
			}
			configPath = filepath.Join(home, ".vsat", "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'vsat config show' to view it, or delete it first to recreate", configPath)
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		data, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		header := "# vsat configuration\n" +
			"#\n" +
			"# Configuration hierarchy (highest to lowest priority):\n" +
			"#   1. CLI flags\n" +
			"#   2. Environment variables (VSAT_*)\n" +
			"#   3. This config file\n" +
			"#   4. Built-in defaults\n" +
			"#\n" +
			"# API keys are read from the environment:\n" +
			"#   export OPENAI_API_KEY=sk-...\n" +
			"#   export VSAT_EMBEDDING_BASE_URL=http://localhost:11434\n\n"

		if err := os.WriteFile(configPath, append([]byte(header), data...), 0600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		fmt.Fprintf(out, "\nTo view the effective configuration:\n  vsat config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
