package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Show the image-meta lookup of a source",
	Long: `Show the ordered image indices of a source. Row i of the collection
maps to the i-th index. The lookup is cached locally; use --refresh to
force a re-download.`,
	Run: runLookup,
}

var (
	lookupSource  string
	lookupRefresh bool
)

func init() {
	lookupCmd.Flags().StringVar(&lookupSource, "source", "", "Source name (defaults to the configured source)")
	lookupCmd.Flags().BoolVar(&lookupRefresh, "refresh", false, "Bypass and refresh the local cache")
}

func runLookup(cmd *cobra.Command, args []string) {
	cctx := initFullContext()
	defer cctx.Close()
	ctx := context.Background()

	source := cctx.sourceOrDefault(lookupSource)

	var (
		lookup []int
		err    error
	)
	if lookupRefresh {
		lookup, err = cctx.Collection.RefreshLookup(ctx, source)
	} else {
		lookup, err = cctx.Collection.ImageMetaLookup(ctx, source)
	}
	if err != nil {
		exitError("failed to get lookup for source %q: %v", source, err)
	}

	imagesetID, err := cctx.Collection.ImagesetID(ctx, source)
	if err != nil {
		exitError("failed to resolve imageset for source %q: %v", source, err)
	}

	fmt.Printf("source %s (imageset %s), %d images\n", source, shortID(imagesetID), len(lookup))
	for row, idx := range lookup {
		fmt.Printf("%6d  ->  image %d\n", row, idx)
	}
}
