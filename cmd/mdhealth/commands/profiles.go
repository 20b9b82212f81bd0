package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/mdhealth/internal/quality"
)

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "데이터셋 프로파일 (검증 규칙) 조회",
	Long: `데이터셋 타입별 분석 규칙을 표시합니다.

PROFILES_FILE 이 설정되어 있으면 기본 규칙 위에 병합됩니다.

Example:
  go run ./cmd/mdhealth profiles
  go run ./cmd/mdhealth profiles validate ./profiles.yaml`,
	RunE: runProfilesList,
}

var profilesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "프로파일 YAML 파일 검증",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesValidate,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesValidateCmd)
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := quality.DefaultRegistry()
	if cfg.Analysis.ProfilesFile != "" {
		if err := registry.LoadFile(cfg.Analysis.ProfilesFile); err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}
	}

	var profiles []quality.Profile
	for _, name := range registry.Names() {
		p, _ := registry.Lookup(name)
		profiles = append(profiles, p)
	}
	printProfiles(cmd, profiles, registry.Fingerprint())
	return nil
}

func runProfilesValidate(cmd *cobra.Command, args []string) error {
	profiles, err := quality.LoadProfiles(args[0])
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	registry := quality.DefaultRegistry()
	for _, p := range profiles {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("❌ %w", err)
		}
	}
	printProfiles(cmd, profiles, registry.Fingerprint())
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d profile(s) valid\n", len(profiles))
	return nil
}

func printProfiles(cmd *cobra.Command, profiles []quality.Profile, fingerprint string) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetTitle("Dataset profiles (" + fingerprint + ")")
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dataset", "Keys", "Codes", "Allowed Values", "Physical", "Ranges"})

	for _, p := range profiles {
		var allowed []string
		for _, av := range p.AllowedValues {
			allowed = append(allowed, fmt.Sprintf("%s: %s", av.Field, strings.Join(av.Values, "|")))
		}
		var ranges []string
		for _, r := range p.Ranges {
			ranges = append(ranges, fmt.Sprintf("%s [%g, %g]", r.Field, r.Min, r.Max))
		}
		t.AppendRow(table.Row{
			p.Name,
			strings.Join(p.KeyFields, ", "),
			strings.Join(p.CodeFields, ", "),
			strings.Join(allowed, "\n"),
			strings.Join(p.PhysicalFields, ", "),
			strings.Join(ranges, "\n"),
		})
	}
	t.Render()
}
