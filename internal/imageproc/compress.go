package imageproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/modessa/modessa/internal/domain"
)

// Compress re-encodes a bitmap as JPEG with the longer dimension capped at
// maxDim, scaling uniformly to preserve aspect ratio. Images already under
// the cap are re-encoded at their original size, never upscaled, which
// also makes the operation idempotent on dimensions.
func Compress(src image.Image, maxDim, quality int) ([]byte, error) {
	const op = "photo.compress"

	if maxDim <= 0 {
		maxDim = domain.CompressMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = domain.CompressJPEGQuality
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	resized := src
	if w > maxDim || h > maxDim {
		if w >= h {
			resized = imaging.Resize(src, maxDim, 0, imaging.Lanczos)
		} else {
			resized = imaging.Resize(src, 0, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, domain.Internal(err, op, "failed to encode photo")
	}
	return buf.Bytes(), nil
}
