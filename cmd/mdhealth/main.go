package main

import (
	"os"

	"github.com/wonny/mdhealth/cmd/mdhealth/commands"
)

// main is the entry point for the mdhealth CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/mdhealth [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
