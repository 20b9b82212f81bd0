package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/wonny/mdhealth/internal/external/ibp"
	"github.com/wonny/mdhealth/internal/source"
)

// ibpCmd represents the ibp command
var ibpCmd = &cobra.Command{
	Use:   "ibp",
	Short: "SAP IBP 연결 관리",
	Long: `SAP IBP OData 서비스 연결을 확인하고 데이터를 조회/수정합니다.

Subcommands:
  test     - 인증 (CSRF 토큰) 확인
  fetch    - 데이터셋 조회
  correct  - 레코드 수정 (PATCH)

Example:
  go run ./cmd/mdhealth ibp test
  go run ./cmd/mdhealth ibp fetch Products --rows 5
  go run ./cmd/mdhealth ibp correct Products P000123 UnitOfMeasure=EA GrossWeight=12.5`,
}

var (
	ibpTestCmd = &cobra.Command{
		Use:   "test",
		Short: "IBP 연결 테스트",
		RunE:  runIBPTest,
	}

	ibpFetchCmd = &cobra.Command{
		Use:   "fetch [data_type]",
		Short: "IBP 데이터셋 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  runIBPFetch,
	}

	ibpCorrectCmd = &cobra.Command{
		Use:   "correct [data_type] [record_id] [field=value...]",
		Short: "IBP 레코드 수정",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runIBPCorrect,
	}

	ibpRows    int
	ibpRawVals bool
)

func init() {
	rootCmd.AddCommand(ibpCmd)
	ibpCmd.AddCommand(ibpTestCmd)
	ibpCmd.AddCommand(ibpFetchCmd)
	ibpCmd.AddCommand(ibpCorrectCmd)

	ibpFetchCmd.Flags().IntVar(&ibpRows, "rows", 10, "rows to print")
	ibpCorrectCmd.Flags().BoolVar(&ibpRawVals, "raw", false, "send every value as a string")
}

// newIBPClient builds a client sharing the app's Redis rate limiter
func newIBPClient(a *app) *ibp.Client {
	return source.NewIBPClient(a.cfg, a.redis, a.log)
}

func newIBPApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.IBP.URL == "" || cfg.IBP.Username == "" {
		return nil, fmt.Errorf("IBP_URL and IBP_USERNAME must be set")
	}
	return newAppWithConfig(cfg)
}

func runIBPTest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SAP IBP Connection Test ===")

	a, err := newIBPApp()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("   URL: %s\n", a.cfg.IBP.URL)
	fmt.Printf("   User: %s (client %s)\n\n", a.cfg.IBP.Username, a.cfg.IBP.Client)

	ctx, cancel := context.WithTimeout(cmd.Context(), 45*time.Second)
	defer cancel()

	start := time.Now()
	if err := newIBPClient(a).TestConnection(ctx); err != nil {
		return fmt.Errorf("❌ IBP connection failed: %w", err)
	}
	fmt.Printf("✅ Authenticated in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Supported data types: %s\n", strings.Join(ibp.SupportedTypes(), ", "))
	return nil
}

func runIBPFetch(cmd *cobra.Command, args []string) error {
	dataType := args[0]

	a, err := newIBPApp()
	if err != nil {
		return err
	}
	defer a.close()

	tbl, err := newIBPClient(a).FetchMasterData(cmd.Context(), dataType)
	if err != nil {
		return fmt.Errorf("❌ fetch %s: %w", dataType, err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle(fmt.Sprintf("%s (%d rows)", dataType, tbl.NumRows()))
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(tbl.Columns))
	for i, c := range tbl.Columns {
		header[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}
	t.AppendHeader(header)
	for _, row := range tbl.Rows[:min(ibpRows, tbl.NumRows())] {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = formatCell(v)
		}
		t.AppendRow(r)
	}
	t.Render()
	return nil
}

func runIBPCorrect(cmd *cobra.Command, args []string) error {
	dataType, recordID := args[0], args[1]

	fields, err := parseAssignments(args[2:], ibpRawVals)
	if err != nil {
		return err
	}

	a, err := newIBPApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := newIBPClient(a).SubmitCorrection(cmd.Context(), dataType, recordID, fields); err != nil {
		return fmt.Errorf("❌ correction failed: %w", err)
	}
	fmt.Printf("✅ %s %s updated (%d fields)\n", dataType, recordID, len(fields))
	return nil
}

// parseAssignments turns field=value arguments into a PATCH body.
// Unless raw, numeric values become numbers and true/false become booleans.
func parseAssignments(args []string, raw bool) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected field=value)", arg)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("field %q assigned twice", key)
		}
		fields[key] = typedValue(value, raw)
	}
	return fields, nil
}

func typedValue(s string, raw bool) any {
	if raw || s == "" {
		return s
	}
	switch strings.ToLower(s) {
	case "true", "false":
		return cast.ToBool(s)
	case "null":
		return nil
	}
	// 선행 0이 있는 코드 값 (예: 00123) 은 문자열 유지
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return f
	}
	return s
}
