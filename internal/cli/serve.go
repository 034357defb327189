package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the VeriSense HTTP API",
	Long: `Serve starts the HTTP API:

  POST /claims/extract        extract claim sentences from text
  POST /verification/         run the full pipeline for a claim (alias /verification/run)
  POST /reasoning/run         reason over a claim and supplied evidence
  GET  /news/                 aggregated news articles
  GET  /social/               reddit and twitter listings
  POST /voice/process-audio   transcribe, verify and answer with speech
  GET  /voice/speech/{name}   download synthesized speech
  GET  /metrics               Prometheus metrics

Example:
  verisense serve --addr :8000
  VERISENSE_REASONER_MODE=rules verisense serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().Float64("rate-limit", 0, "per-client requests per second (0 disables)")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.requests_per_second", serveCmd.Flags().Lookup("rate-limit"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	srv, cleanup, err := c.newServer()
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer cleanup()

	logger.Info("verisense starting",
		"version", Version,
		"addr", cfg.Server.Addr,
		"reasoner", cfg.Reasoner.Mode,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}
