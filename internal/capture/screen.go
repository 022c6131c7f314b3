package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
)

// Screen grabs the whole virtual desktop (the union of all active
// displays) and scales it by Scale.
type Screen struct {
	Scale float64
}

func (s *Screen) Grab(_ context.Context) (image.Image, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, errors.New("no active display")
	}

	var bounds image.Rectangle
	for i := 0; i < n; i++ {
		bounds = bounds.Union(screenshot.GetDisplayBounds(i))
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return Downscale(img, s.Scale), nil
}

// Downscale resizes img by factor with Catmull-Rom resampling. Factors
// outside (0, 1) return img unchanged.
func Downscale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor >= 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
