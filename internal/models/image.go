package models

import (
	"fmt"
	"strings"
)

// ImageResolution selects the output size tier of a generated image
type ImageResolution string

const (
	ImageResolution1K ImageResolution = "1K"
	ImageResolution2K ImageResolution = "2K"
	ImageResolution4K ImageResolution = "4K"
)

// DefaultImageResolution is used when a request does not name one
const DefaultImageResolution = ImageResolution1K

// ImageResolutions lists the supported tiers in ascending order
var ImageResolutions = []ImageResolution{ImageResolution1K, ImageResolution2K, ImageResolution4K}

// ParseImageResolution parses a resolution name, case-insensitively.
// An empty value yields DefaultImageResolution.
func ParseImageResolution(value string) (ImageResolution, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return DefaultImageResolution, nil
	}
	for _, r := range ImageResolutions {
		if string(r) == value {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported image resolution '%s' (expected 1K, 2K or 4K)", value)
}

// ProviderSize returns the provider-side imageSize value for the tier
func (r ImageResolution) ProviderSize() string {
	return string(r)
}
