package domain

import "strings"

// blockedURIFragments mark unseeded or mock catalog content.
var blockedURIFragments = []string{"placeholder", "example.com"}

// ValidateSourceURI checks that uri can be handed to the playback engine.
// A URI is valid iff it is non-empty, starts with "http://" or "https://"
// exactly as given, and contains none of the blocked fragments. The returned *ValidationError carries a
// human-readable Message and wraps ErrInvalidSourceURI.
func ValidateSourceURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return invalidURI(uri, "This track has no audio source.")
	}

	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return invalidURI(uri, "This track's audio source is not a web address (http or https).")
	}

	lower := strings.ToLower(uri)
	for _, fragment := range blockedURIFragments {
		if strings.Contains(lower, fragment) {
			return invalidURI(uri, "This track points to placeholder content and cannot be played.")
		}
	}

	return nil
}

func invalidURI(uri, reason string) *ValidationError {
	err := NewValidationError("url", uri, reason)
	err.Err = ErrInvalidSourceURI
	return err
}
