package cli

import (
	"context"
	"fmt"

	"github.com/edkvist/maskann/internal/config"
	"github.com/edkvist/maskann/internal/remote"
	"github.com/edkvist/maskann/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a maskann workspace",
	Long: `Initialize a maskann workspace in the current directory.
This creates a .maskann directory holding the configuration and the
local lookup cache.`,
	Run: runInit,
}

var (
	initAPIURL     string
	initToken      string
	initCollection string
)

func init() {
	initCmd.Flags().StringVar(&initAPIURL, "api-url", "http://localhost:8730", "Annotation service URL")
	initCmd.Flags().StringVar(&initToken, "token", "", "Bearer token for the annotation service")
	initCmd.Flags().StringVar(&initCollection, "collection", "", "Collection to attach this workspace to")
	initCmd.MarkFlagRequired("collection")
}

func runInit(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	// Check if already initialized
	if _, err := config.FindRoot(); err == nil {
		exitError("maskann workspace already exists")
	}

	fmt.Printf("Initializing maskann workspace...\n")
	fmt.Printf("Service URL: %s\n", initAPIURL)

	// Verify the service and collection are reachable before writing anything
	client := remote.NewHTTPClient(initAPIURL, initToken)

	info, err := client.GetServiceInfo(ctx)
	if err != nil {
		exitError("failed to reach annotation service: %v", err)
	}
	fmt.Printf("Connected to %s %s\n", info.Name, info.Version)

	coll, err := client.GetCollection(ctx, initCollection)
	if err != nil {
		exitError("failed to fetch collection %q: %v", initCollection, err)
	}
	fmt.Printf("Collection: %s (%d sources)\n", coll.Name, coll.SourceCount)

	cfg, err := config.Initialize(initAPIURL, initToken, initCollection)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	st, err := store.New(cfg.CachePath())
	if err != nil {
		exitError("failed to create lookup cache: %v", err)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		exitError("failed to initialize lookup cache: %v", err)
	}

	fmt.Printf("\nInitialized maskann workspace in .maskann/\n")
	fmt.Printf("Tracking collection %q at %s\n", coll.Name, initAPIURL)
}
