package fields

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
)

// DefaultThreshold is the binarization pivot applied before OCR.
const DefaultThreshold = 150

// Binarize converts img to grayscale and maps every pixel above threshold
// to white and the rest to black.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// PreprocessFile decodes a PNG or JPEG image, binarizes it and writes the
// result as PNG to dst.
func PreprocessFile(src string, dst io.Writer, threshold uint8) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	if err := png.Encode(dst, Binarize(img, threshold)); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return nil
}
