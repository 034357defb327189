package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/worker"
)

var (
	concurrency  int
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many texts concurrently",
	Long: `Batch reads one text per line (blank lines and # comments are skipped,
duplicates are verified once) and runs each through the pipeline on a
worker pool. Results are written as a JSON array in input order.

Example:
  verisense batch claims.txt
  verisense batch claims.txt --concurrency 8 --out results.json
  cat claims.txt | verisense batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&concurrency, "concurrency", "c", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write JSON to this file instead of stdout")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
}

// batchEntry is one input line and its records
type batchEntry struct {
	Input   string                      `json:"input"`
	Records []model.VerifiedClaimRecord `json:"records"`
	Error   string                      `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, os.Stderr)

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  VeriSense Batch\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Input:     %s\n", file)
	fmt.Fprintf(stderr, "  Workers:   %d\n", concurrency)
	fmt.Fprintf(stderr, "  Reasoner:  %s\n", cfg.Reasoner.Mode)
	fmt.Fprintf(stderr, "\n")

	processor := worker.NewBatchProcessor(c.pipeline, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	entries, failures := summarizeBatch(results)
	for _, e := range entries {
		if e.Error != "" {
			fmt.Fprintf(stderr, "✗ %s: %s\n", truncate(e.Input, 60), e.Error)
			continue
		}
		fmt.Fprintf(stderr, "✓ %s (%d claims)\n", truncate(e.Input, 60), len(e.Records))
	}

	if err := writeJSONOutput(cmd.OutOrStdout(), batchOut, entries); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d\n", len(entries))
	fmt.Fprintf(stderr, "  Success:   %d\n", len(entries)-failures)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(stderr, "\n")
	return nil
}

// summarizeBatch converts worker results into output entries and counts failures
func summarizeBatch(results []*worker.ClaimResult) ([]batchEntry, int) {
	entries := make([]batchEntry, 0, len(results))
	failures := 0
	for _, r := range results {
		e := batchEntry{Input: r.Input, Records: r.Records()}
		if e.Records == nil {
			e.Records = []model.VerifiedClaimRecord{}
		}
		if err := r.Err(); err != nil {
			e.Error = err.Error()
			failures++
		}
		entries = append(entries, e)
	}
	return entries, failures
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
