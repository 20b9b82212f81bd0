package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	sourceKind string
	dataTypes  []string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mdhealth",
	Short: "Supply-chain master data health analyzer",
	Long: `mdhealth - 공급망 마스터 데이터 품질 분석기

Products, Locations, Customers, Suppliers, Time Profiles, Resource Plans
데이터셋을 여섯 가지 품질 차원으로 평가하고 개선 권고를 생성합니다.

Data sources:
  demo      - 시드 기반 합성 데이터 (기본값)
  ibp       - SAP IBP OData 서비스
  postgres  - PostgreSQL 마스터 데이터 스키마

Usage:
  go run ./cmd/mdhealth [command]

Examples:
  go run ./cmd/mdhealth analyze
  go run ./cmd/mdhealth analyze --source ibp --format markdown
  go run ./cmd/mdhealth api
  go run ./cmd/mdhealth ibp test`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&sourceKind, "source", "", "data source override (demo|ibp|postgres)")
	rootCmd.PersistentFlags().StringSliceVar(&dataTypes, "types", nil, "dataset types to load (default from DATASET_TYPES)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
