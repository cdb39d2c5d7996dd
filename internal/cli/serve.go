package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/niana0/vendor-security-assessment-tool/internal/api"
	"github.com/niana0/vendor-security-assessment-tool/internal/metrics"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment HTTP API",
	Long: `Serve exposes assessments over HTTP:

  POST   /api/v1/assessments              run an assessment (JSON or YAML body)
  GET    /api/v1/assessments              list stored assessments
  GET    /api/v1/assessments/{id}         fetch one assessment
  GET    /api/v1/assessments/{id}/report  fetch its risk report
  DELETE /api/v1/assessments/{id}         delete it
  GET    /health                          liveness
  GET    /metrics                         Prometheus metrics

Without a configured store, assessments are kept in an in-memory SQLite database.

Example:
  vsat serve --addr :8080
  vsat serve --store postgres://vsat@localhost/vsat`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	if !verbose {
		setupLogger(os.Stderr, slog.LevelInfo)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	m := metrics.New()
	p.SetMetrics(m)

	dsn := cfg.Store.DSN
	if dsn == "" {
		dsn = ":memory:"
		slog.Warn("no store configured, assessments will not survive a restart")
	}
	st, err := store.Open(dsn)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.NewServer(cfg.Server, p, st, m, Version).ListenAndServe(ctx)
}
