package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/niana0/vendor-security-assessment-tool/internal/intake"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/pipeline"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
)

var (
	outJSON       string
	outYAML       string
	assessTimeout time.Duration
	saveResult    bool
	failOn        string
	quiet         bool
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess <input-file>",
	Short: "Assess one vendor from a questionnaire and evidence file",
	Long: `Assess reads a JSON or YAML input file holding the vendor's questionnaire
and the evidence collected about it, then:
- Normalizes, trust-weights and deduplicates the evidence
- Maps each question to its best supporting evidence
- Flags missing, weak and contradictory evidence
- Aggregates everything into a risk report with ranked recommendations

Example:
  vsat assess acme.yaml
  vsat assess acme.yaml --json acme-report.json
  vsat assess acme.yaml --provider openai --model text-embedding-3-small
  vsat assess acme.yaml --save --store ./vsat.db --fail-on high`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVar(&outJSON, "json", "", "write the full assessment as JSON to this path")
	assessCmd.Flags().StringVar(&outYAML, "yaml", "", "write the full assessment as YAML to this path")
	assessCmd.Flags().DurationVar(&assessTimeout, "timeout", 5*time.Minute, "overall assessment timeout")
	assessCmd.Flags().BoolVar(&saveResult, "save", false, "persist the assessment to the configured store")
	assessCmd.Flags().StringVar(&failOn, "fail-on", "", "exit non-zero when the risk level is at or above this level (low, medium, high, critical)")
	assessCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the summary on stdout")
}

func runAssess(cmd *cobra.Command, args []string) error {
	var threshold model.RiskLevel
	if failOn != "" {
		level, ok := model.ParseRiskLevel(failOn)
		if !ok {
			return fmt.Errorf("--fail-on: unknown risk level %q", failOn)
		}
		threshold = level
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input, err := intake.LoadFile(args[0])
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), assessTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Assessing %s: %d questions, %d evidence batches (backend: %s)\n",
			args[0], len(input.Questions), len(input.Evidence), p.Backend())
	}

	a, err := p.Assess(ctx, input)
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	if err := writeOutputs(a, outJSON, outYAML); err != nil {
		return err
	}

	if saveResult {
		if err := saveAssessment(ctx, cfg, a); err != nil {
			return err
		}
	}

	if !quiet {
		pipeline.PrintSummary(cmd.OutOrStdout(), a)
	}

	if threshold != "" && a.Report.OverallLevel.Rank() >= threshold.Rank() {
		return fmt.Errorf("risk level %s is at or above %s", a.Report.OverallLevel, threshold)
	}
	return nil
}

func writeOutputs(a *model.Assessment, jsonPath, yamlPath string) error {
	if jsonPath != "" {
		if err := pipeline.WriteJSON(a, jsonPath); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}
	if yamlPath != "" {
		if err := pipeline.WriteYAML(a, yamlPath); err != nil {
			return fmt.Errorf("write YAML: %w", err)
		}
	}
	return nil
}

func openStore(cfg model.Config) (*store.Store, error) {
	if cfg.Store.DSN == "" {
		return nil, fmt.Errorf("no store configured (set --store, VSAT_STORE_DSN or store.dsn)")
	}
	return store.Open(cfg.Store.DSN)
}

func saveAssessment(ctx context.Context, cfg model.Config, a *model.Assessment) (err error) {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()

	if err := st.Save(ctx, a); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Saved assessment %s\n", a.ID)
	}
	return nil
}
