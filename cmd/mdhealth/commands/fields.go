package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/wonny/mdhealth/internal/quality"
)

// fieldsCmd represents the fields command
var fieldsCmd = &cobra.Command{
	Use:   "fields [type]",
	Short: "데이터셋 필드별 프로파일링",
	Long: `하나의 데이터셋을 소스에서 읽어 필드별 통계를 표시합니다.

- 필드별 완전성 (90% 미만 필드 별도 표시)
- 타입 분포
- 고유값 수, 숫자 통계 및 IQR 이상치, 상위 값, 날짜 범위

Example:
  go run ./cmd/mdhealth fields Products
  go run ./cmd/mdhealth fields "Time Profiles" --format json
  go run ./cmd/mdhealth fields Products --top 10`,
	Args: cobra.ExactArgs(1),
	RunE: runFields,
}

var (
	fieldsFormat  string
	fieldsTop     int
	fieldsTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(fieldsCmd)

	fieldsCmd.Flags().StringVarP(&fieldsFormat, "format", "f", "table", "output format (table|json)")
	fieldsCmd.Flags().IntVar(&fieldsTop, "top", 3, "top values shown per text field in table output")
	fieldsCmd.Flags().DurationVar(&fieldsTimeout, "timeout", 2*time.Minute, "load timeout")
}

func runFields(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), fieldsTimeout)
	defer cancel()

	report, err := a.service.ProfileFields(ctx, args[0])
	if err != nil {
		return err
	}
	return writeFields(report, fieldsFormat, fieldsTop, cmd.OutOrStdout())
}

// writeFields renders a field profile as tables or indented JSON
func writeFields(report quality.FieldsReport, format string, top int, w io.Writer) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "table", "":
	default:
		return fmt.Errorf("unknown format %q (table|json)", format)
	}

	if len(report.Fields) == 0 {
		fmt.Fprintf(w, "⚠️  %s: no data available\n", report.Dataset)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s fields (%d rows)", report.Dataset, report.Rows))
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Type", "Complete", "Null", "Unique", "Details"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, f := range report.Fields {
		t.AppendRow(table.Row{
			f.Name,
			f.Type,
			fmt.Sprintf("%.1f%%", f.Completeness),
			f.Null,
			fmt.Sprintf("%d (%.1f%%)", f.Unique, f.UniquePct),
			fieldDetails(f, top),
		})
	}
	t.Render()

	tt := table.NewWriter()
	tt.SetOutputMirror(w)
	tt.SetTitle("Type distribution")
	tt.SetStyle(table.StyleLight)
	tt.AppendHeader(table.Row{"Type", "Count", "Fields"})
	for _, g := range report.Types {
		names := g.Fields
		suffix := ""
		if len(names) > 5 {
			names, suffix = names[:5], "..."
		}
		tt.AppendRow(table.Row{g.Type, g.Count, strings.Join(names, ", ") + suffix})
	}
	tt.Render()

	if len(report.LowCompleteness) > 0 {
		fmt.Fprintf(w, "⚠️  Fields below %.0f%% completeness: %s\n",
			quality.LowFieldCompleteness, strings.Join(report.LowCompleteness, ", "))
	} else {
		fmt.Fprintf(w, "✅ All fields have at least %.0f%% completeness\n", quality.LowFieldCompleteness)
	}
	return nil
}

func fieldDetails(f quality.FieldProfile, top int) string {
	switch {
	case f.Numeric != nil:
		n := f.Numeric
		return fmt.Sprintf("min %g / median %g / max %g, outliers %d (%.1f%%)",
			n.Min, n.Median, n.Max, n.Outliers, n.OutlierPct)
	case f.Datetime != nil:
		d := f.Datetime
		return fmt.Sprintf("%s → %s (%d days)",
			d.Earliest.Format("2006-01-02"), d.Latest.Format("2006-01-02"), d.RangeDays)
	case f.Text != nil:
		values := f.Text.Top
		if top >= 0 && len(values) > top {
			values = values[:top]
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = fmt.Sprintf("%s (%d)", v.Value, v.Count)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
