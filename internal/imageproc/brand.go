package imageproc

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/modessa/modessa/internal/domain"
)

// Brand composites the brand logo into the top-right corner of a generated
// image and re-encodes it as PNG for download. The logo is sized to a
// fixed fraction of the image width with a proportional margin and
// near-opaque blending.
//
// A nil or empty logo returns the input unchanged: a missing asset must
// never fail the flow.
func Brand(encoded []byte, logo []byte) ([]byte, error) {
	const op = "tryon.brand"

	if len(logo) == 0 {
		return encoded, nil
	}

	img, err := imaging.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode generated image")
	}

	logoImg, err := imaging.Decode(bytes.NewReader(logo))
	if err != nil {
		// A corrupt logo asset is treated like a missing one.
		return encoded, nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	logoW := int(float64(w) * domain.BrandLogoWidthRatio)
	if logoW < 1 {
		logoW = 1
	}
	scaled := imaging.Resize(logoImg, logoW, 0, imaging.Lanczos)

	marginX := int(float64(w) * domain.BrandMarginRatio)
	marginY := int(float64(h) * domain.BrandMarginRatio)
	pos := image.Pt(w-scaled.Bounds().Dx()-marginX, marginY)

	out := imaging.Overlay(img, scaled, pos, domain.BrandOpacity)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, domain.Internal(err, op, "failed to encode branded image")
	}
	return buf.Bytes(), nil
}
