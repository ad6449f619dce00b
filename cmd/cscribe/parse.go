package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe-go/internal/extract"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract the structural model of a single file as JSON",
	Long: `Parse runs extraction on one Java, Kotlin, or XML file and prints
the resulting code model. Useful for inspecting what the analysis
service sees.

Examples:
  cscribe parse app/src/main/java/com/example/MainActivity.java
  cscribe parse app/src/main/res/layout/activity_main.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	adapter := extract.NewAdapter()
	fileModel, err := adapter.Extract(context.Background(), path, content)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(fileModel)
}
