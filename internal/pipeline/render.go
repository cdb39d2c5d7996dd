package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// WriteJSON writes the assessment as indented JSON
func WriteJSON(a *model.Assessment, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// WriteYAML writes the assessment as YAML
func WriteYAML(a *model.Assessment, path string) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes a short human-readable summary of the assessment
func PrintSummary(w io.Writer, a *model.Assessment) {
	r := a.Report
	vendor := a.Vendor
	if vendor == "" {
		vendor = "(unnamed vendor)"
	}

	fmt.Fprintf(w, "\n%s\n", vendor)
	fmt.Fprintf(w, "  Risk level:   %s\n", r.OverallLevel)
	fmt.Fprintf(w, "  Score:        %d/100\n", r.OverallScore)
	fmt.Fprintf(w, "  Coverage:     %.1f%% (%d/%d answered)\n", r.Coverage, r.Summary.Answered, r.Summary.TotalQuestions)
	fmt.Fprintf(w, "  Evidence:     %d items (%s similarity)\n", r.Summary.EvidenceCount, a.Backend)
	fmt.Fprintf(w, "  Gaps:         %d missing, %d contradictory, %d weak\n",
		r.Summary.GapCounts[model.GapMissing], r.Summary.GapCounts[model.GapContradictory], r.Summary.GapCounts[model.GapWeak])
	if r.Degraded {
		fmt.Fprintf(w, "  ⚠ Semantic similarity unavailable; scores are lexical only\n")
	}

	if len(r.CategoryScores) > 0 {
		categories := make([]string, 0, len(r.CategoryScores))
		for c := range r.CategoryScores {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)
		fmt.Fprintf(w, "  Categories:  ")
		for _, c := range categories {
			fmt.Fprintf(w, " %s=%d", c, r.CategoryScores[model.Category(c)])
		}
		fmt.Fprintln(w)
	}

	for _, risk := range r.Risks {
		fmt.Fprintf(w, "  [%s] %s\n", risk.Level, risk.Description)
	}
	for _, inc := range r.IncidentThreats {
		fmt.Fprintf(w, "  [%s] %s\n", inc.Level, inc.Description)
	}
	if r.Summary.PublicIncidents > len(r.IncidentThreats) {
		fmt.Fprintf(w, "  Public incidents: %d reported, %d listed\n", r.Summary.PublicIncidents, len(r.IncidentThreats))
	}

	if len(r.AttackSurfaces) > 0 {
		fmt.Fprintf(w, "\n  Attack surfaces:\n")
		for _, surface := range r.AttackSurfaces {
			fmt.Fprintf(w, "  - %s (%s exposure): %s\n", surface.Surface, surface.Exposure, surface.Description)
		}
	}

	if len(r.Mitigations) > 0 {
		fmt.Fprintf(w, "\n  Mitigations needed:\n")
		for _, m := range r.Mitigations {
			fmt.Fprintf(w, "  - %s: %s\n", m.Action, strings.Join(m.Controls, ", "))
		}
	}

	if len(r.RankedRecommendations) > 0 {
		fmt.Fprintf(w, "\n  Top recommendations:\n")
		limit := len(r.RankedRecommendations)
		if limit > 5 {
			limit = 5
		}
		for _, rec := range r.RankedRecommendations[:limit] {
			if rec.QuestionID == "" {
				fmt.Fprintf(w, "  %d. %s (%s)\n", rec.Priority, rec.Action, rec.Reason)
				continue
			}
			fmt.Fprintf(w, "  %d. [%s %s] %s\n", rec.Priority, rec.QuestionID, rec.GapKind, rec.Action)
		}
	}
}
