package storage

import (
	"errors"
	"fmt"
	"strings"
)

// MaxImageBytes is the largest car image the admin form accepts.
const MaxImageBytes = 5 << 20

var (
	ErrNotAnImage    = errors.New("Please select an image file")
	ErrImageTooLarge = fmt.Errorf("Image must be %d MB or smaller", MaxImageBytes>>20)
)

// ValidateImage runs the checks that happen before any upload is attempted.
func ValidateImage(contentType string, size int64) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return ErrNotAnImage
	}
	if size > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// ResolveImageURL passes absolute URLs through and maps bare file names to
// the API's public car image folder.
func ResolveImageURL(apiBase, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}
	ref = strings.TrimPrefix(ref, "/")
	return strings.TrimRight(apiBase, "/") + "/storage/cars/" + ref
}
