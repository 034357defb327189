package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verisense/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage VeriSense configuration",
	Long: `Manage VeriSense configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (VERISENSE_*, plus GROQ_API_KEY, NEWS_API_KEY and friends)
3. Config file (~/.verisense/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after merging defaults, config file, environment and flags. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", f)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults and environment)\n\n")
		}
		return showConfig(cmd.OutOrStdout(), cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long:  `Create ~/.verisense/config.yaml with every option at its default value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}
		path := filepath.Join(home, ".verisense", "config.yaml")
		if err := initConfigFile(path); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", path)
		fmt.Fprintf(out, "\nTo view the effective configuration:\n")
		fmt.Fprintf(out, "  verisense config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// showConfig prints cfg as YAML with secrets masked
func showConfig(w io.Writer, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// initConfigFile writes the default configuration to path, refusing to overwrite
func initConfigFile(path string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'verisense config show' to view it, or delete it first to recreate", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	header := "# VeriSense configuration\n" +
		"#\n" +
		"# Priority: CLI flags > environment (VERISENSE_*) > this file > built-in defaults.\n" +
		"# Keep API keys in the environment or a .env file rather than here:\n" +
		"#   GOOGLE_FACTCHECK_API_KEY, GOOGLE_NLP_API_KEY, GROQ_API_KEY, OPENAI_API_KEY,\n" +
		"#   NEWS_API_KEY, NEWSDATA_API_KEY, REDDIT_CLIENT_ID, REDDIT_SECRET, TWITTER_BEARER_TOKEN\n\n"
	if _, err := io.WriteString(f, header); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}
