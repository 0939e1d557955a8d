package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modessa/modessa/internal/domain"
)

// solidImage returns a w x h image filled with the given color.
func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodeJPEG encodes an image to JPEG bytes for upload-style inputs.
func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// =============================================================================
// Normalize
// =============================================================================

func TestNormalize_RejectsDisallowedType(t *testing.T) {
	data := encodeJPEG(t, solidImage(10, 10, color.Gray{Y: 128}))

	_, err := Normalize(data, "image/gif")
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Contains(t, err.Error(), "Unsupported photo type")
}

func TestNormalize_RejectsOversize(t *testing.T) {
	// Declared type is fine but the payload exceeds the input ceiling.
	big := make([]byte, domain.MaxUploadSize+1)

	_, err := Normalize(big, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, domain.ETOOLARGE, domain.ErrorCode(err))
}

func TestNormalize_RejectsEmpty(t *testing.T) {
	_, err := Normalize(nil, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestNormalize_RejectsMislabeledContent(t *testing.T) {
	_, err := Normalize([]byte("this is not an image at all, just text padding"), "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestNormalize_DecodesJPEGAndPNG(t *testing.T) {
	jpegData := encodeJPEG(t, solidImage(40, 30, color.Gray{Y: 128}))
	img, err := Normalize(jpegData, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	pngData := encodePNG(t, solidImage(20, 20, color.Gray{Y: 128}))
	img, err = Normalize(pngData, "image/png")
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
}

// =============================================================================
// Crop
// =============================================================================

func TestCrop_ZoomClamp(t *testing.T) {
	src := solidImage(300, 400, color.Gray{Y: 128})
	rect := image.Rect(0, 0, 300, 400)

	for _, zoom := range []float64{0.5, 0.99, 3.01, 10} {
		_, err := Crop(src, rect, zoom)
		assert.Error(t, err, "zoom %v should be rejected", zoom)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	}

	for _, zoom := range []float64{1, 2, 3} {
		_, err := Crop(src, rect, zoom)
		assert.NoError(t, err, "zoom %v should be accepted", zoom)
	}
}

func TestCrop_RectMustBeInsideAndAspect(t *testing.T) {
	src := solidImage(600, 800, color.Gray{Y: 128})

	// Outside the bounds.
	_, err := Crop(src, image.Rect(400, 500, 700, 900), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside")

	// Wrong aspect ratio.
	_, err = Crop(src, image.Rect(0, 0, 300, 300), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aspect")

	// Valid 3:4 selection yields exactly the selected dimensions.
	out, err := Crop(src, image.Rect(100, 100, 400, 500), 1.5)
	require.NoError(t, err)
	assert.Equal(t, 300, out.Bounds().Dx())
	assert.Equal(t, 400, out.Bounds().Dy())
}

func TestCrop_DoesNotMutateSource(t *testing.T) {
	src := solidImage(300, 400, color.Gray{Y: 200})
	_, err := Crop(src, image.Rect(0, 0, 150, 200), 1)
	require.NoError(t, err)

	r, _, _, _ := src.At(299, 399).RGBA()
	assert.Equal(t, uint32(200), r>>8)
}

// =============================================================================
// Compress
// =============================================================================

func TestCompress_CapsLongerSide(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"landscape over cap", 4000, 3000, 1280, 960},
		{"portrait over cap", 3000, 4000, 960, 1280},
		{"under cap unchanged", 800, 600, 800, 600},
		{"exactly at cap unchanged", 1280, 960, 1280, 960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solidImage(tt.w, tt.h, color.Gray{Y: 128})
			out, err := Compress(src, domain.CompressMaxDimension, domain.CompressJPEGQuality)
			require.NoError(t, err)

			img, err := imaging.Decode(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestCompress_IdempotentOnDimensions(t *testing.T) {
	src := solidImage(4000, 3000, color.Gray{Y: 128})

	first, err := Compress(src, domain.CompressMaxDimension, domain.CompressJPEGQuality)
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(first))
	require.NoError(t, err)

	second, err := Compress(decoded, domain.CompressMaxDimension, domain.CompressJPEGQuality)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, 1280, img.Bounds().Dx())
	assert.Equal(t, 960, img.Bounds().Dy())
}

// =============================================================================
// Quality gate
// =============================================================================

func TestClassifyBrightness(t *testing.T) {
	tests := []struct {
		name string
		gray uint8
		want domain.BrightnessClass
	}{
		{"uniform dark", 20, domain.BrightnessTooDark},
		{"just below dark threshold", 59, domain.BrightnessTooDark},
		{"mid gray", 128, domain.BrightnessOK},
		{"just above bright threshold", 250, domain.BrightnessTooBright},
		{"blown out", 255, domain.BrightnessTooBright},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solidImage(200, 200, color.Gray{Y: tt.gray})
			assert.Equal(t, tt.want, ClassifyBrightness(img))
		})
	}
}

func TestMeanLuminance_MidGray(t *testing.T) {
	img := solidImage(640, 480, color.Gray{Y: 128})
	mean := MeanLuminance(img)
	assert.InDelta(t, 128, mean, 2)
}

// =============================================================================
// Branding
// =============================================================================

func TestBrand_MissingLogoReturnsInputUnchanged(t *testing.T) {
	encoded := encodePNG(t, solidImage(100, 100, color.Gray{Y: 128}))

	out, err := Brand(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, encoded, out)
}

func TestBrand_CorruptLogoReturnsInputUnchanged(t *testing.T) {
	encoded := encodePNG(t, solidImage(100, 100, color.Gray{Y: 128}))

	out, err := Brand(encoded, []byte("not a logo"))
	require.NoError(t, err)
	assert.Equal(t, encoded, out)
}

func TestBrand_OverlaysTopRight(t *testing.T) {
	base := encodePNG(t, solidImage(500, 500, color.Black))
	logo := encodePNG(t, solidImage(100, 100, color.White))

	out, err := Brand(base, logo)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// Dimensions are unchanged.
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())

	// The logo occupies ~20% of the width inside a 5% margin: sample a point
	// inside the expected logo region and one far away from it.
	logoX, logoY := 500-25-50, 25+20 // inside the top-right overlay
	r, _, _, _ := img.At(logoX, logoY).RGBA()
	assert.Greater(t, r>>8, uint32(128), "top-right region should be brightened by the logo")

	r, _, _, _ = img.At(20, 480).RGBA()
	assert.Less(t, r>>8, uint32(32), "bottom-left region should be untouched")
}
