package cli

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <annotation-id>",
	Short: "Decode and view a mask annotation",
	Long: `Fetch a stored annotation, decode its mask, and write it out as an
8-bit grayscale PNG (or render it as ASCII with --ascii).`,
	Args: cobra.ExactArgs(1),
	Run:  runView,
}

var (
	viewOutput string
	viewASCII  bool
)

func init() {
	viewCmd.Flags().StringVarP(&viewOutput, "output", "o", "mask.png", "Output PNG path")
	viewCmd.Flags().BoolVar(&viewASCII, "ascii", false, "Render the mask to the terminal instead of a file")
}

func runView(cmd *cobra.Command, args []string) {
	cctx := initFullContext()
	defer cctx.Close()
	ctx := context.Background()

	ann, err := cctx.Collection.Annotation(ctx, args[0])
	if err != nil {
		exitError("failed to fetch annotation: %v", err)
	}

	plane, err := ann.Plane()
	if err != nil {
		exitError("failed to decode mask: %v", err)
	}

	if viewASCII {
		for y := 0; y < plane.Height(); y++ {
			for x := 0; x < plane.Width(); x++ {
				if plane.At(x, y) {
					fmt.Print("#")
				} else {
					fmt.Print(".")
				}
			}
			fmt.Println()
		}
		return
	}

	f, err := os.Create(viewOutput)
	if err != nil {
		exitError("failed to create %s: %v", viewOutput, err)
	}
	defer f.Close()

	if err := png.Encode(f, plane.Gray()); err != nil {
		exitError("failed to write %s: %v", viewOutput, err)
	}

	fmt.Printf("Wrote %dx%d mask to %s\n", plane.Width(), plane.Height(), viewOutput)
}
