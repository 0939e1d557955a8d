// Package domain contains core business types and interfaces.
//
// This file defines constants and validation helpers for user-supplied
// try-on photos: accepted media types, the upload size ceiling, crop
// geometry, compression parameters, and the brightness thresholds used
// by the photo quality gate.
package domain

// SupportedImageTypes maps accepted MIME types to their human-readable names.
// The set matches what the try-on pipeline can decode; HEIC is accepted at
// upload but decoding depends on the phone having already transcoded it, so
// an undecodable HEIC is rejected at the decode step with a clear message.
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/webp": "WEBP",
	"image/heic": "HEIC",
}

const (
	// MaxUploadSize is the maximum allowed size for an uploaded photo (30MB).
	// This is the input ceiling only; the working image is compressed well
	// below it before submission.
	MaxUploadSize = 30 * 1024 * 1024

	// CropAspectWidth and CropAspectHeight define the fixed crop viewport
	// ratio (3:4, portrait).
	CropAspectWidth  = 3
	CropAspectHeight = 4

	// CropZoomMin and CropZoomMax clamp the crop viewport zoom range.
	CropZoomMin = 1.0
	CropZoomMax = 3.0

	// CompressMaxDimension caps the longer side of the compressed working
	// image. Images already under the cap are never upscaled.
	CompressMaxDimension = 1280

	// CompressJPEGQuality is the JPEG quality for the working image (0-100).
	CompressJPEGQuality = 85
)

// Brightness thresholds for the photo quality gate, on the 0-255 mean
// luminance scale.
const (
	// LuminanceDarkThreshold is the mean luminance below which a photo is
	// classified too dark for generation.
	LuminanceDarkThreshold = 60.0

	// LuminanceBrightThreshold is the mean luminance above which a photo is
	// classified too bright (blown out).
	LuminanceBrightThreshold = 215.0
)

// Branding overlay geometry, all proportional to the generated image width
// except opacity.
const (
	// BrandLogoWidthRatio sizes the logo to a fraction of the image width.
	BrandLogoWidthRatio = 0.20

	// BrandMarginRatio is the margin between the logo and the top-right
	// corner, as a fraction of image width/height.
	BrandMarginRatio = 0.05

	// BrandOpacity is the logo blend opacity.
	BrandOpacity = 0.90
)

// IsValidImageContentType checks if the content type is supported.
func IsValidImageContentType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidateUploadSize checks if the file size is within the input ceiling.
func ValidateUploadSize(size int64) error {
	if size > MaxUploadSize {
		return Errorf(ETOOLARGE, "photo.validate", "Photo size %d bytes exceeds maximum of %d bytes (%.0fMB)", size, MaxUploadSize, float64(MaxUploadSize)/(1024*1024))
	}
	if size == 0 {
		return Invalid("photo.validate", "Photo file is empty")
	}
	return nil
}
