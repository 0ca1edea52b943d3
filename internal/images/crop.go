package images

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropBottom removes the bottom pixels of the image in place. News
// sites stamp watermarks along the bottom edge; cutting that strip off
// yields a clean illustration. An image shorter than twice the strip is
// left untouched rather than reduced to a sliver.
func CropBottom(path string, pixels int) error {
	if pixels <= 0 {
		return nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dy() <= pixels*2 {
		return nil
	}

	cropped := imaging.Crop(img, image.Rect(
		bounds.Min.X, bounds.Min.Y,
		bounds.Max.X, bounds.Max.Y-pixels,
	))
	if err := imaging.Save(cropped, path, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("saving cropped image: %w", err)
	}
	return nil
}
