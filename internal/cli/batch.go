package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/niana0/vendor-security-assessment-tool/internal/intake"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
	"github.com/niana0/vendor-security-assessment-tool/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchSave    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <input-file>...",
	Short: "Assess several vendors in parallel",
	Long: `Batch runs one assessment per input file concurrently and writes a JSON
report per vendor into the output directory. A failing input does not stop
the others.

Example:
  vsat batch vendors/*.yaml
  vsat batch vendors/*.yaml --concurrency 8 --output-dir ./reports
  vsat batch vendors/*.yaml --save --store postgres://vsat@localhost/vsat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent assessments")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./vsat-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist every assessment to the configured store")
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	var st *store.Store
	if batchSave {
		st, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close store: %w", closeErr)
			}
		}()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  vsat Batch Assessment\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Inputs:       %d\n", len(args))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", p.Backend())
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(p, intake.LoadFile, concurrency)
	processor.OnProgress(func(done, total int, r *worker.AssessResult) {
		if r.Error != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] ✗ %s: %v\n", done, total, r.Source, r.Error)
			return
		}
		report := r.Assessment.Report
		fmt.Fprintf(os.Stderr, "[%d/%d] ✓ %s (score %d/100, %s risk)\n",
			done, total, r.Source, report.OverallScore, report.OverallLevel)
	})

	results := processor.Process(ctx, args)

	successCount, failureCount := 0, 0
	names := make(map[string]int)
	for _, r := range results {
		if r.Error != nil {
			failureCount++
			continue
		}

		name := reportName(r.Source, r.Assessment.Vendor)
		if n := names[name]; n > 0 {
			names[name]++
			name = fmt.Sprintf("%s-%d", name, n+1)
		} else {
			names[name] = 1
		}
		path := filepath.Join(outputDir, name+".json")
		if err := writeOutputs(r.Assessment, path, ""); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Source, err)
			continue
		}
		if st != nil {
			if err := st.Save(ctx, r.Assessment); err != nil {
				failureCount++
				fmt.Fprintf(os.Stderr, "✗ %s: save: %v\n", r.Source, err)
				continue
			}
		}
		successCount++
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d assessments failed", failureCount, len(results))
	}
	return nil
}

// reportName derives a filesystem-safe report name from the vendor, or the input file name
func reportName(source, vendor string) string {
	name := vendor
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return sanitizeFilename(name)
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "assessment"
	}
	return s
}
