package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show service and collection summary",
	Run:   runInfo,
}

func runInfo(cmd *cobra.Command, args []string) {
	cctx := initFullContext()
	defer cctx.Close()
	ctx := context.Background()

	info, err := cctx.Client.GetServiceInfo(ctx)
	if err != nil {
		exitError("failed to get service info: %v", err)
	}

	coll, err := cctx.Collection.Info(ctx)
	if err != nil {
		exitError("failed to get collection: %v", err)
	}

	bold := color.New(color.Bold)
	bold.Printf("%s %s\n", info.Name, info.Version)
	fmt.Printf("  URL:         %s\n", cctx.Config.APIURL)
	fmt.Printf("  Collections: %d\n", info.CollectionCount)
	fmt.Printf("  Annotations: %d\n", info.AnnotationCount)
	fmt.Println()
	bold.Printf("Collection %s\n", coll.Name)
	fmt.Printf("  ID:      %s\n", coll.ID)
	fmt.Printf("  Sources: %d\n", coll.SourceCount)
}
