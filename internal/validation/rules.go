// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"strings"

	validation "github.com/jellydator/validation"
)

// imageExtensions are the file extensions the publishing platform accepts.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ImageURL validates that a value is an absolute http(s) URL whose path ends
// with a supported image extension.
type ImageURL struct{}

// Validate checks the value against the image URL requirements.
func (i ImageURL) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_image_url", "image URL must be a string")
	}

	parsed, err := url.Parse(s)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return validation.NewError("validation_image_url", "must be a valid http(s) URL")
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return nil
		}
	}
	return validation.NewError(
		"validation_image_url",
		"URL must point to an image file (jpg, jpeg, png, gif, webp)",
	)
}
