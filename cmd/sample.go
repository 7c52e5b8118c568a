package main

import (
	"fmt"

	"swatch-extractor/imaging"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var sampleFlags struct {
	cropStart float64
	cropEnd   float64
	statistic string
}

var sampleCmd = &cobra.Command{
	Use:   "sample <image>...",
	Short: "Sample the representative color of local images",
	Long: "sample runs the color sampler on images already on disk, so a crop band\n" +
		"or statistic can be checked by eye before a full scrape.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSample,
}

func init() {
	f := sampleCmd.Flags()
	f.Float64Var(&sampleFlags.cropStart, "crop-start", 0, "Start of the central band as a fraction of width and height")
	f.Float64Var(&sampleFlags.cropEnd, "crop-end", 0, "End of the central band as a fraction of width and height")
	f.StringVar(&sampleFlags.statistic, "statistic", "", "Per-channel statistic: mean or median")
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	sampling := cfg.Sampling
	f := cmd.Flags()
	if f.Changed("crop-start") {
		sampling.CropStart = sampleFlags.cropStart
	}
	if f.Changed("crop-end") {
		sampling.CropEnd = sampleFlags.cropEnd
	}
	if f.Changed("statistic") {
		sampling.Statistic = sampleFlags.statistic
	}

	sampler, err := imaging.NewSampler(sampling)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Image", "Hex"})

	failed := 0
	for _, path := range args {
		hex, err := sampler.SampleFile(path)
		if err != nil {
			logger.Warnf("Could not sample %s: %v", path, err)
			t.AppendRow(table.Row{path, "error"})
			failed++
			continue
		}
		t.AppendRow(table.Row{path, hex})
	}

	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	fmt.Fprintf(cmd.OutOrStdout(), "Band [%.2f, %.2f), statistic %s\n", sampling.CropStart, sampling.CropEnd, statisticName(sampling.Statistic))

	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be sampled", failed, len(args))
	}
	return nil
}

func statisticName(s string) string {
	if s == "" {
		return string(imaging.StatisticMean)
	}
	return s
}
