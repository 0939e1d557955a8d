package imageproc

import (
	"image"

	"github.com/modessa/modessa/internal/domain"
)

// qualitySampleGrid is the number of sample points per axis for the
// brightness heuristic. A coarse grid is sufficient; exactness is not
// required.
const qualitySampleGrid = 32

// MeanLuminance samples pixel luminance on a coarse grid and returns the
// mean on a 0-255 scale using Rec. 601 luma weights.
func MeanLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	stepX := w / qualitySampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := h / qualitySampleGrid
	if stepY < 1 {
		stepY = 1
	}

	var sum float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; scale to 0-255.
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			sum += luma
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ClassifyBrightness maps mean luminance to a brightness class against the
// fixed thresholds.
func ClassifyBrightness(img image.Image) domain.BrightnessClass {
	mean := MeanLuminance(img)
	switch {
	case mean < domain.LuminanceDarkThreshold:
		return domain.BrightnessTooDark
	case mean > domain.LuminanceBrightThreshold:
		return domain.BrightnessTooBright
	default:
		return domain.BrightnessOK
	}
}
