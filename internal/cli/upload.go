package cli

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // mask files are PNG
	"os"

	fcolor "github.com/fatih/color"

	"github.com/edkvist/maskann/internal/mask"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <mask.png>",
	Short: "Upload a mask annotation",
	Long: `Read a local mask image, encode it as a 1-bit PNG upload package, and
attach it to an image of the collection. Fully white pixels mark the
segmented region; everything else is background.`,
	Args: cobra.ExactArgs(1),
	Run:  runUpload,
}

var (
	uploadSource     string
	uploadImageIndex int
	uploadClassID    int
)

func init() {
	uploadCmd.Flags().StringVar(&uploadSource, "source", "", "Source name (defaults to the configured source)")
	uploadCmd.Flags().IntVar(&uploadImageIndex, "image-index", -1, "Index of the target image within its imageset")
	uploadCmd.Flags().IntVar(&uploadClassID, "class-id", 0, "Semantic class id of the mask")
	uploadCmd.MarkFlagRequired("image-index")
	uploadCmd.MarkFlagRequired("class-id")
}

func runUpload(cmd *cobra.Command, args []string) {
	cctx := initFullContext()
	defer cctx.Close()
	ctx := context.Background()

	plane, err := loadMaskPlane(args[0])
	if err != nil {
		exitError("%v", err)
	}

	up, err := mask.CreateUploadable(plane, uploadClassID)
	if err != nil {
		exitError("failed to build upload package: %v", err)
	}

	source := cctx.sourceOrDefault(uploadSource)
	ann, err := cctx.Collection.UploadMask(ctx, source, uploadImageIndex, up)
	if err != nil {
		exitError("failed to upload annotation: %v", err)
	}

	row, err := ann.RowIndex(ctx)
	if err != nil {
		exitError("uploaded, but failed to resolve row index: %v", err)
	}

	green := fcolor.New(fcolor.FgGreen)
	green.Printf("Uploaded annotation %s\n", shortID(ann.Record().ID))
	roi := up.Annotation.ROI
	fmt.Printf("  mask:  %dx%d, roi x=[%d,%d] y=[%d,%d]\n",
		up.Annotation.Width, up.Annotation.Height, roi.XMin, roi.XMax, roi.YMin, roi.YMax)
	fmt.Printf("  image: index %d (row %d of source %s)\n", uploadImageIndex, row, source)
	fmt.Printf("  class: %d\n", uploadClassID)
}

// loadMaskPlane reads a boolean mask from a locally stored image file.
// A pixel belongs to the mask iff it is fully white.
func loadMaskPlane(path string) (*mask.Plane, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("mask file not found: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("mask path is not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode mask file %s: %w", path, err)
	}

	b := img.Bounds()
	plane := mask.NewPlane(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if g.Y == 255 {
				plane.Set(x, y, true)
			}
		}
	}
	return plane, nil
}
