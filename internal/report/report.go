// Package report renders analysis runs for terminals, documents and spreadsheets.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/wonny/mdhealth/internal/contracts"
)

// Format selects the output encoding
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts table, markdown (md), csv and json
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (table, markdown, csv, json)", s)
}

// Document is everything a full report shows.
// Dimensions narrows the dimension table; empty means all six.
type Document struct {
	Title           string                     `json:"title,omitempty"`
	Run             *contracts.AnalysisRun     `json:"run"`
	Summary         contracts.Summary          `json:"summary"`
	Dimensions      []contracts.Dimension      `json:"dimensions,omitempty"`
	Recommendations []contracts.Recommendation `json:"recommendations"`

	HideIssues          bool `json:"-"`
	HideRecommendations bool `json:"-"`
}

// Render writes the report: summary, scores, dimensions, then issues and
// recommendations unless hidden
func Render(w io.Writer, doc Document, format Format) error {
	if format == FormatJSON {
		if doc.HideRecommendations {
			doc.Recommendations = nil
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	type section struct {
		title string
		tw    table.Writer
	}
	sections := []section{
		{"Summary", SummaryTable(doc.Summary)},
		{"Aggregate Scores", ScoresTable(doc.Run)},
		{"Dimension Scores", DimensionsTable(doc.Run, doc.Dimensions...)},
	}
	if !doc.HideIssues {
		sections = append(sections, section{"Issues", IssuesTable(doc.Run)})
	}
	if !doc.HideRecommendations {
		sections = append(sections, section{"Recommendations", RecommendationsTable(doc.Recommendations)})
	}

	if doc.Title != "" {
		var err error
		switch format {
		case FormatMarkdown:
			_, err = fmt.Fprintf(w, "# %s\n\n", doc.Title)
		case FormatTable:
			_, err = fmt.Fprintf(w, "%s\n\n", doc.Title)
		}
		if err != nil {
			return err
		}
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := renderSection(w, s.title, s.tw, format); err != nil {
			return err
		}
	}
	return nil
}

func renderSection(w io.Writer, title string, tw table.Writer, format Format) error {
	var out string
	switch format {
	case FormatMarkdown:
		out = "## " + title + "\n\n" + tw.RenderMarkdown()
	case FormatCSV:
		out = tw.RenderCSV()
	default:
		tw.SetTitle(title)
		tw.SetStyle(table.StyleLight)
		out = tw.Render()
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// SummaryTable is a two-column key/value view of the executive summary
func SummaryTable(s contracts.Summary) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Overall score", fmt.Sprintf("%.1f / 10", s.Overall)},
		{"Status", string(s.Status)},
		{"Datasets", s.Datasets},
		{"Acceptable (>= 7)", fmt.Sprintf("%d / %d", s.Acceptable, s.Datasets)},
		{"Improvement to target", fmt.Sprintf("%.1f", s.ImprovementNeeded)},
		{"Weakest", s.Weakest},
		{"Strongest", s.Strongest},
	})
	return t
}

// ScoresTable lists aggregate scores, datasets in lexical order
func ScoresTable(run *contracts.AnalysisRun) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Dataset", "Score", "Issues", "High"})
	if run != nil {
		for _, name := range run.DatasetNames() {
			rep := run.Reports[name]
			t.AppendRow(table.Row{
				name,
				fmt.Sprintf("%.2f", run.Scores[name]),
				len(rep.Issues),
				rep.IssueCount(contracts.SeverityHigh),
			})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return t
}

// DimensionsTable lists dimension percentages per dataset; no dims means all six
func DimensionsTable(run *contracts.AnalysisRun, dims ...contracts.Dimension) table.Writer {
	if len(dims) == 0 {
		dims = contracts.Dimensions
	}
	t := table.NewWriter()
	header := table.Row{"Dataset"}
	for _, d := range dims {
		header = append(header, dimensionTitle(d))
	}
	t.AppendHeader(header)

	if run != nil {
		for _, name := range run.DatasetNames() {
			rep := run.Reports[name]
			row := table.Row{name}
			for _, d := range dims {
				row = append(row, fmt.Sprintf("%.1f", rep.Score(d)))
			}
			t.AppendRow(row)
		}
	}
	return t
}

// IssuesTable flattens issues across datasets, each dataset's order kept
func IssuesTable(run *contracts.AnalysisRun) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Data Type", "Field", "Description", "Severity"})
	if run != nil {
		for _, is := range run.AllIssues() {
			t.AppendRow(table.Row{is.DataType, is.Field, is.Description, string(is.Severity)})
		}
	}
	return t
}

// RecommendationsTable lists recommendations in the given order
func RecommendationsTable(recs []contracts.Recommendation) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Data Type", "Focus Area", "Recommendation", "Priority"})
	for _, r := range recs {
		t.AppendRow(table.Row{r.DataType, r.FocusArea, r.Recommendation, string(r.Priority)})
	}
	return t
}

// WriteIssuesCSV exports every issue of the run as RFC 4180 CSV
func WriteIssuesCSV(w io.Writer, run *contracts.AnalysisRun) error {
	records := [][]string{{"data_type", "field", "description", "severity"}}
	if run != nil {
		for _, is := range run.AllIssues() {
			records = append(records, []string{is.DataType, is.Field, is.Description, string(is.Severity)})
		}
	}
	return writeCSV(w, records)
}

// WriteRecommendationsCSV exports recommendations as RFC 4180 CSV
func WriteRecommendationsCSV(w io.Writer, recs []contracts.Recommendation) error {
	records := [][]string{{"data_type", "focus_area", "recommendation", "priority"}}
	for _, r := range recs {
		records = append(records, []string{r.DataType, r.FocusArea, r.Recommendation, string(r.Priority)})
	}
	return writeCSV(w, records)
}

func writeCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func dimensionTitle(d contracts.Dimension) string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
