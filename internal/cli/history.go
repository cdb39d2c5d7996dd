package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/pipeline"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
)

var (
	historyVendor string
	historyLevel  string
	historyLimit  int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored assessments",
	Long: `Browse assessments saved with --save or through the HTTP API.

Example:
  vsat history list --vendor Acme
  vsat history show 3f2a9c1e-...
  vsat history show 3f2a9c1e-... --json acme.json`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored assessments, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.ListOptions{Vendor: historyVendor, Limit: historyLimit}
		if historyLevel != "" {
			level, ok := model.ParseRiskLevel(historyLevel)
			if !ok {
				return fmt.Errorf("--level: unknown risk level %q", historyLevel)
			}
			opts.Level = level
		}

		return withStore(func(st *store.Store) error {
			list, err := st.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVENDOR\tCREATED\tSCORE\tLEVEL\tCOVERAGE")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.1f%%\n",
					s.ID, s.Vendor, s.CreatedAt.Format("2006-01-02 15:04"), s.OverallScore, s.OverallLevel, s.Coverage)
			}
			return w.Flush()
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			a, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := writeOutputs(a, outJSON, outYAML); err != nil {
				return err
			}
			pipeline.PrintSummary(cmd.OutOrStdout(), a)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
			return nil
		})
	},
}

func withStore(fn func(st *store.Store) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()
	return fn(st)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)

	historyListCmd.Flags().StringVar(&historyVendor, "vendor", "", "only this vendor")
	historyListCmd.Flags().StringVar(&historyLevel, "level", "", "only this risk level")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultListLimit, "maximum rows")

	historyShowCmd.Flags().StringVar(&outJSON, "json", "", "also write the assessment as JSON to this path")
	historyShowCmd.Flags().StringVar(&outYAML, "yaml", "", "also write the assessment as YAML to this path")
}
