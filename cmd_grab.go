package main

import (
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/soocke/pixel-capture-go/ui/images"
)

var (
	grabOut   string
	grabWidth int
)

var grabCmd = &cobra.Command{
	Use:   "grab",
	Short: "Capture one frame and save it as an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		ref, label, err := rt.startSession()
		if err != nil {
			return err
		}
		defer ref.Destroy()

		f, err := ref.Frame()
		if err != nil {
			return fmt.Errorf("frame from %s: %w", label, err)
		}
		img, err := images.FromFrame(f)
		if err != nil {
			return err
		}
		out := img
		if grabWidth > 0 && grabWidth < img.Bounds().Dx() {
			out = imaging.Resize(img, grabWidth, 0, imaging.Lanczos)
		}
		if err := imaging.Save(out, grabOut); err != nil {
			return fmt.Errorf("save %s: %w", grabOut, err)
		}
		rt.logger.Info("grab.saved", "path", grabOut, "source", label,
			"width", f.Width, "height", f.Height, "sequence", f.Sequence,
			"captured_at", f.CapturedAt.Format(time.RFC3339Nano))
		return nil
	},
}

func init() {
	addTargetFlags(grabCmd)
	grabCmd.Flags().StringVarP(&grabOut, "out", "o", "frame.png", "output file; the format follows the extension")
	grabCmd.Flags().IntVar(&grabWidth, "width", 0, "resize to this width before saving (0 = native)")
	rootCmd.AddCommand(grabCmd)
}
