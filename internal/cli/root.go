package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verisense/internal/model"
)

// Version is overridden at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// envAliases binds the variable names the deployment already uses.
var envAliases = map[string][]string{
	"factcheck.api_key":           {"GOOGLE_FACTCHECK_API_KEY"},
	"nlp.api_key":                 {"GOOGLE_NLP_API_KEY", "GOOGLE_API_KEY"},
	"llm.api_key":                 {"GROQ_API_KEY", "OPENAI_API_KEY"},
	"voice.api_key":               {"OPENAI_API_KEY"},
	"news.newsapi_key":            {"NEWS_API_KEY"},
	"news.newsdata_key":           {"NEWSDATA_API_KEY"},
	"social.reddit_client_id":     {"REDDIT_CLIENT_ID"},
	"social.reddit_secret":        {"REDDIT_SECRET"},
	"social.twitter_bearer_token": {"TWITTER_BEARER_TOKEN"},
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verisense",
	Short: "VeriSense - claim extraction, evidence gathering and verdict reasoning",
	Long: `VeriSense checks factual claims in free text or speech.

It extracts sentences that mention people, organizations, places, dates
or events, looks them up in a fact-check database, and asks a reasoning
model for a verdict with a confidence score and a short justification.

Run "verisense serve" for the HTTP API or "verisense check" for a one-off check.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "verisense v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verisense/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("reasoner", "", "reasoner mode: llm, rules or heuristic")

	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("reasoner.mode", rootCmd.PersistentFlags().Lookup("reasoner"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and the environment into the global viper
func initConfig() {
	// A missing .env is the normal case outside development
	_ = godotenv.Load()

	if err := configureViper(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		return
	}
	if verbose && viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configureViper registers defaults, environment bindings and the config file on v.
// A missing default config file is not an error; a missing explicit one is.
func configureViper(v *viper.Viper, file string) error {
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		return err
	}

	v.SetEnvPrefix("VERISENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"VERISENSE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(filepath.Join(home, ".verisense"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// setDefaults registers every key of cfg so AutomaticEnv can override it on Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := val.(map[string]any); ok {
				walk(key, child)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)

	// Secrets and endpoints are omitted from the YAML when empty but must still be known keys
	for key := range envAliases {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	for _, key := range []string{"factcheck.endpoint", "factcheck.language_code", "nlp.endpoint"} {
		if !v.IsSet(key) {
			v.SetDefault(key, "")
		}
	}
	return nil
}

// loadConfig decodes the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
