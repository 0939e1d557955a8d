package imageproc

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/modessa/modessa/internal/domain"
)

// Crop rasterizes exactly the selected pixel rectangle into a new bitmap
// of that rectangle's dimensions. The viewport is fixed at 3:4; rect must
// match that ratio within one pixel of rounding, lie inside the source
// bounds, and the zoom that produced it must be within the clamped range.
//
// Cancelling a crop is simply not calling this: the source bitmap is
// never mutated.
func Crop(src image.Image, rect image.Rectangle, zoom float64) (image.Image, error) {
	const op = "photo.crop"

	if zoom < domain.CropZoomMin || zoom > domain.CropZoomMax {
		return nil, domain.Invalid(op, fmt.Sprintf("Zoom %.2f is outside the allowed range %.0fx-%.0fx", zoom, domain.CropZoomMin, domain.CropZoomMax))
	}

	rect = rect.Canon()
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, domain.Invalid(op, "Crop selection is empty")
	}
	if !rect.In(src.Bounds()) {
		return nil, domain.Invalid(op, "Crop selection lies outside the photo")
	}
	if !aspectMatches(rect.Dx(), rect.Dy()) {
		return nil, domain.Invalid(op, fmt.Sprintf("Crop selection must have a %d:%d aspect ratio", domain.CropAspectWidth, domain.CropAspectHeight))
	}

	return imaging.Crop(src, rect), nil
}

// aspectMatches checks w:h against the fixed crop ratio, allowing one
// pixel of rounding slack on the height.
func aspectMatches(w, h int) bool {
	expected := w * domain.CropAspectHeight / domain.CropAspectWidth
	diff := h - expected
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}
