package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"swatch-extractor/internal/types"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// printSummary writes the per-product table and the run totals.
func printSummary(out io.Writer, result *types.RunResult) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "Color", "Hex", "Image", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 24},
		{Number: 5, WidthMax: 32},
	})

	for i, record := range result.Records {
		status := "complete"
		if i < len(result.Outcomes) && !result.Outcomes[i].Complete() {
			status = "partial: " + string(result.Outcomes[i].FailedStage)
		}
		t.AppendRow(table.Row{
			i + 1,
			record.Name,
			record.Color,
			valueOrDash(record.HexColor),
			baseOrDash(record.LocalImagePath),
			status,
		})
	}

	fmt.Fprintln(out, t.Render())

	complete := result.CompleteCount()
	fmt.Fprintf(out, "Run:      %s\n", result.RunID)
	fmt.Fprintf(out, "Products: %d total, %d complete, %d partial\n", len(result.Records), complete, len(result.Records)-complete)

	failures := result.FailuresByStage()
	stages := make([]string, 0, len(failures))
	for stage := range failures {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(out, "  failed at %-15s %d\n", stage+":", failures[types.Stage(stage)])
	}

	output := result.OutputFile
	if info, err := os.Stat(result.OutputFile); err == nil {
		output = fmt.Sprintf("%s (%s)", result.OutputFile, humanize.Bytes(uint64(info.Size())))
	}
	fmt.Fprintf(out, "Output:   %s\n", output)
	fmt.Fprintf(out, "Duration: %v\n", result.Duration.Round(time.Millisecond))
}

func valueOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func baseOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return filepath.Base(*s)
}
