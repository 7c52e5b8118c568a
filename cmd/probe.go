package main

import (
	"fmt"

	"swatch-extractor/adapters"
	"swatch-extractor/internal/types"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var probeFlags struct {
	collectionURL string
	browser       bool
	limit         int
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show how each listing rule matches the collection page",
	Long: "probe fetches the collection page once and reports, per listing rule, the\n" +
		"number of matched elements and usable product links. Use it when a scrape\n" +
		"fails because no listing rule matches any more.",
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	f := probeCmd.Flags()
	f.StringVar(&probeFlags.collectionURL, "collection-url", "", "Collection page URL")
	f.BoolVar(&probeFlags.browser, "browser", false, "Use headless browser to render the page")
	f.IntVar(&probeFlags.limit, "limit", 10, "Number of product links to list")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("collection-url") {
		cfg.CollectionURL = probeFlags.collectionURL
	}
	if cmd.Flags().Changed("browser") {
		cfg.UseHeadlessBrowser = probeFlags.browser
	}

	adapter := adapters.NewShopifyAdapter(cfg, logger)
	defer adapter.Close()

	page, err := adapter.GetPage(cmd.Context(), cfg.CollectionURL)
	if err != nil {
		return &types.ListingExhaustedError{URL: cfg.CollectionURL, Rules: len(adapter.Rules().Listing), Cause: err}
	}

	counts, err := adapter.RuleMatchCounts(page)
	if err != nil {
		return err
	}
	refs, err := adapter.ExtractLinks(page)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Page: %s (%s)\n", page.URL, humanize.Bytes(uint64(len(page.Body))))

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Priority", "Selector", "Matches", "Links", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	winner := -1
	for i, c := range counts {
		if winner < 0 && c.Links > 0 {
			winner = i
		}
	}
	for i, c := range counts {
		mark := ""
		if i == winner {
			mark = "used"
		}
		t.AppendRow(table.Row{i + 1, c.Selector, c.Matches, c.Links, mark})
	}
	fmt.Fprintln(out, t.Render())

	if len(refs) == 0 {
		return &types.ListingExhaustedError{URL: cfg.CollectionURL, Rules: len(counts)}
	}

	fmt.Fprintf(out, "%d product links, first %d:\n", len(refs), min(probeFlags.limit, len(refs)))
	for i, ref := range refs {
		if i >= probeFlags.limit {
			break
		}
		fmt.Fprintf(out, "  %d: %s  %q\n", i+1, ref.URL, ref.RawName)
	}
	return nil
}
