package cli

import (
	"context"
	"fmt"

	"github.com/edkvist/maskann/internal/remote"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "List stored mask annotations",
	Run:   runAnnotations,
}

var (
	annotationsSource     string
	annotationsImageIndex int
)

func init() {
	annotationsCmd.Flags().StringVar(&annotationsSource, "source", "", "Filter by source name")
	annotationsCmd.Flags().IntVar(&annotationsImageIndex, "image-index", remote.AllImages, "Filter by image index")
}

func runAnnotations(cmd *cobra.Command, args []string) {
	cctx := initFullContext()
	defer cctx.Close()
	ctx := context.Background()

	masks, err := cctx.Collection.Annotations(ctx, annotationsSource, annotationsImageIndex)
	if err != nil {
		exitError("failed to list annotations: %v", err)
	}

	if len(masks) == 0 {
		fmt.Println("No annotations.")
		return
	}

	yellow := color.New(color.FgYellow)
	for _, m := range masks {
		rec := m.Record()
		yellow.Printf("%s", shortID(rec.ID))

		idx, err := m.ImageIndex()
		if err != nil {
			fmt.Printf("  (no image index)\n")
			continue
		}

		row := "?"
		if r, err := m.RowIndex(ctx); err == nil {
			row = fmt.Sprintf("%d", r)
		}

		size := ""
		if rec.Annotation != nil {
			size = fmt.Sprintf("%dx%d", rec.Annotation.Width, rec.Annotation.Height)
		}
		fmt.Printf("  source=%s image=%d row=%s class=%d mask=%s\n",
			m.Source(), idx, row, rec.ClassID, size)
	}
}
