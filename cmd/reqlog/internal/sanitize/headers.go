package sanitize

import "github.com/thalib/reqlog/cmd/reqlog/internal/constants"

// Headers returns a shallow copy of headers with the authorization and cookie
// entries replaced by the marker. Keys are matched exactly, so callers pass
// lowercased header names. Other values are copied as they are, nested or not.
func (s *Sanitizer) Headers(headers map[string]any) map[string]any {
	out := make(map[string]any, len(headers))
	for key, value := range headers {
		out[key] = value
	}

	if _, ok := out[constants.HeaderKeyAuthorization]; ok {
		out[constants.HeaderKeyAuthorization] = s.marker
	}
	if _, ok := out[constants.HeaderKeyCookie]; ok {
		out[constants.HeaderKeyCookie] = s.marker
	}

	return out
}

// Headers sanitizes headers with the default sanitizer.
func Headers(headers map[string]any) map[string]any {
	return defaultSanitizer.Headers(headers)
}
