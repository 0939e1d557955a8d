// Package imageproc implements the try-on image pipeline as pure
// functions: normalization, cropping, compression, the brightness
// heuristic, and brand watermarking. Keeping these free of session state
// makes each stage independently testable.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/modessa/modessa/internal/domain"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Normalize validates a raw upload and decodes it into a bitmap.
//
// The declared media type must be in the supported set and the byte size
// must be under the input ceiling; violations are rejected with an error,
// never silently dropped. The declared type is cross-checked against the
// sniffed content so a mislabeled file fails here rather than downstream.
// No network call is made.
func Normalize(data []byte, declaredType string) (image.Image, error) {
	const op = "photo.normalize"

	if !domain.IsValidImageContentType(declaredType) {
		name := declaredType
		if name == "" {
			name = "unknown"
		}
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported photo type: %s. Please use JPEG, PNG, WEBP, or HEIC.", name))
	}
	if err := domain.ValidateUploadSize(int64(len(data))); err != nil {
		return nil, err
	}

	sniffed := http.DetectContentType(sniffBytes(data))
	if sniffed != declaredType && !domain.IsValidImageContentType(sniffed) {
		// HEIC sniffs as application/octet-stream; let the decoder decide.
		if declaredType != "image/heic" {
			return nil, domain.Invalid(op, fmt.Sprintf("Photo content does not match its declared type (%s)", declaredType))
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if declaredType == "image/heic" {
			return nil, domain.Invalid(op, "This HEIC photo could not be read. Please convert it to JPEG and try again.")
		}
		return nil, domain.Invalid(op, "The photo could not be decoded. Please choose a different file.")
	}
	return img, nil
}

// sniffBytes returns at most the 512 bytes http.DetectContentType inspects.
func sniffBytes(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
