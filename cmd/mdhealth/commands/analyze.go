package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/recommend"
	"github.com/wonny/mdhealth/internal/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "마스터 데이터 품질 분석 (1회 실행)",
	Long: `설정된 소스에서 데이터셋을 읽어 품질 분석을 1회 실행하고 보고서를 출력합니다.

출력 섹션:
- Summary (전체 점수, 상태, 목표 대비 개선 필요량)
- Aggregate Scores (데이터셋별 0-10 점수)
- Dimension Scores (6개 차원 0-100 점수)
- Issues
- Recommendations

Example:
  go run ./cmd/mdhealth analyze
  go run ./cmd/mdhealth analyze --format markdown --output report.md
  go run ./cmd/mdhealth analyze --source postgres --priority High
  go run ./cmd/mdhealth analyze --report-types Products,Locations --dimensions validity,accuracy --no-issues`,
	RunE: runAnalyze,
}

var (
	analyzeFormat     string
	analyzeOutput     string
	analyzePriority   []string
	analyzeReportType []string
	analyzeDimensions []string
	analyzeTitle      string
	analyzeNoIssues   bool
	analyzeNoRecs     bool
	analyzeTimeout    time.Duration
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "table", "output format (table|markdown|csv|json)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write report to file instead of stdout")
	analyzeCmd.Flags().StringSliceVar(&analyzePriority, "priority", nil, "only show recommendations with these priorities (High,Medium,Low)")
	analyzeCmd.Flags().StringSliceVar(&analyzeReportType, "report-types", nil, "only include these dataset types in the report")
	analyzeCmd.Flags().StringSliceVar(&analyzeDimensions, "dimensions", nil, "dimension columns to show (completeness,consistency,...)")
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "report title")
	analyzeCmd.Flags().BoolVar(&analyzeNoIssues, "no-issues", false, "omit the issues section")
	analyzeCmd.Flags().BoolVar(&analyzeNoRecs, "no-recommendations", false, "omit the recommendations section")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall load-and-analyze timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(analyzeFormat)
	if err != nil {
		return err
	}
	priorities, err := parsePriorities(analyzePriority)
	if err != nil {
		return err
	}
	dims, err := parseDimensions(analyzeDimensions)
	if err != nil {
		return err
	}
	opts := reportOptions{
		priorities:          priorities,
		dataTypes:           analyzeReportType,
		dimensions:          dims,
		title:               analyzeTitle,
		hideIssues:          analyzeNoIssues,
		hideRecommendations: analyzeNoRecs,
		path:                analyzeOutput,
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	run, err := a.service.Run(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return writeReport(run, format, opts, cmd.OutOrStdout())
}

// reportOptions narrows what writeReport shows; the zero value is the full report
type reportOptions struct {
	priorities          []contracts.Severity
	dataTypes           []string
	dimensions          []contracts.Dimension
	title               string
	hideIssues          bool
	hideRecommendations bool
	path                string // stdout when empty
}

// writeReport renders the report of run to opts.path, or to stdout when it is empty
func writeReport(run *contracts.AnalysisRun, format report.Format, opts reportOptions, stdout io.Writer) error {
	scoped := run.Only(opts.dataTypes...)
	recs := recommend.Recommendations(scoped.Reports)
	if len(opts.priorities) > 0 {
		recs = recommend.FilterByPriority(recs, opts.priorities...)
	}
	doc := report.Document{
		Title:               opts.title,
		Run:                 scoped,
		Summary:             recommend.Summarize(scoped.Scores),
		Dimensions:          opts.dimensions,
		Recommendations:     recs,
		HideIssues:          opts.hideIssues,
		HideRecommendations: opts.hideRecommendations,
	}

	path := opts.path
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := report.Render(w, doc, format); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if path != "" {
		fmt.Fprintf(stdout, "✅ Report written to %s\n", path)
	}
	return nil
}

func parsePriorities(values []string) ([]contracts.Severity, error) {
	var out []contracts.Severity
	for _, v := range values {
		sev, ok := contracts.ParseSeverity(v)
		if !ok {
			return nil, fmt.Errorf("invalid priority %q (High, Medium, Low)", v)
		}
		out = append(out, sev)
	}
	return out, nil
}

func parseDimensions(values []string) ([]contracts.Dimension, error) {
	var out []contracts.Dimension
	for _, v := range values {
		d, ok := contracts.ParseDimension(v)
		if !ok {
			return nil, fmt.Errorf("invalid dimension %q", v)
		}
		out = append(out, d)
	}
	return out, nil
}
