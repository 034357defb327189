package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	checkOut     string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Verify the claims in a piece of text",
	Long: `Check runs the full pipeline once:
- Extract claim sentences that mention recognized entities
- Look each claim up in the fact-check database
- Reason over the evidence for a verdict and confidence

The records are printed as JSON. Use "-" to read the text from stdin.

Example:
  verisense check "The Eiffel Tower is located in Berlin."
  echo "NASA landed on the moon in 1969." | verisense check -
  verisense check "..." --reasoner rules --out result.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkOut, "out", "", "write JSON to this file instead of stdout")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := inputText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no claim text provided")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, os.Stderr)

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	outcome := c.pipeline.Process(ctx, text)
	if err := writeJSONOutput(cmd.OutOrStdout(), checkOut, outcome.Records); err != nil {
		return err
	}
	if outcome.Failed() {
		return fmt.Errorf("verification failed: %w", outcome.Err)
	}
	return nil
}

// inputText joins the arguments, or reads r when the only argument is "-"
func inputText(args []string, r io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// writeJSONOutput writes v as indented JSON to path, or to w when path is empty
func writeJSONOutput(w io.Writer, path string, v any) (err error) {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
