package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmpty    = errors.New("image is empty")
	ErrTooLarge = errors.New("image exceeds size limit")
	ErrNotImage = errors.New("file is not an image")
)

// photoTypes are the raster formats accepted for prescription photos.
// Vector formats such as SVG can carry script and are refused.
var photoTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/gif",
	"image/heic",
	"image/heif",
}

// ToDataURL encodes an uploaded prescription photo as a data URL. The
// MIME type is sniffed from the bytes, not taken from the upload headers.
// A maxBytes of zero disables the size check.
func ToDataURL(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), maxBytes)
	}

	mime := mimetype.Detect(data)
	if !isPhoto(mime) {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mime.String())
	}

	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func isPhoto(mime *mimetype.MIME) bool {
	for _, t := range photoTypes {
		if mime.Is(t) {
			return true
		}
	}
	return false
}
