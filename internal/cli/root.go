// Package cli implements the command-line interface for maskann.
package cli

import (
	"fmt"
	"os"

	"github.com/edkvist/maskann/internal/collection"
	"github.com/edkvist/maskann/internal/config"
	"github.com/edkvist/maskann/internal/remote"
	"github.com/edkvist/maskann/internal/store"
	"github.com/spf13/cobra"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config     *config.Config
	Store      *store.Store
	Client     remote.Client
	Collection *collection.Collection
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext initializes config and the lookup cache (no client)
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.CachePath())
	if err != nil {
		exitError("failed to open lookup cache: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize lookup cache: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st}
}

// initFullContext initializes config, cache, the service client, and the
// collection handle
func initFullContext() *cmdContext {
	ctx := initContext()

	httpClient := remote.NewHTTPClient(ctx.Config.APIURL, ctx.Config.Token)
	ctx.Client = remote.NewRetryClient(httpClient, nil)
	ctx.Collection = collection.New(ctx.Client, ctx.Config.Collection, collection.WithCache(ctx.Store))

	return ctx
}

// sourceOrDefault resolves the source to use: flag, then config, then the
// default source name.
func (c *cmdContext) sourceOrDefault(flag string) string {
	if flag != "" {
		return flag
	}
	if c.Config.Source != "" {
		return c.Config.Source
	}
	return collection.DefaultSource
}

var rootCmd = &cobra.Command{
	Use:   "maskann",
	Short: "Mask annotations for image collections",
	Long: `maskann uploads and views binary segmentation-mask annotations attached
to images in a remote image collection. Masks travel as 1-bit PNG data
URIs together with their bounding region of interest.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(annotationsCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
