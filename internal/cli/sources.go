package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the collection's sources",
	Run:   runSources,
}

func runSources(cmd *cobra.Command, args []string) {
	cctx := initFullContext()
	defer cctx.Close()

	sources, err := cctx.Collection.Sources(context.Background())
	if err != nil {
		exitError("failed to list sources: %v", err)
	}

	if len(sources) == 0 {
		fmt.Println("No sources.")
		return
	}

	green := color.New(color.FgGreen)
	for _, s := range sources {
		green.Printf("%s", s.Name)
		fmt.Printf("  imageset=%s  images=%d\n", shortID(s.ImagesetID), s.ImageCount)
	}
}
