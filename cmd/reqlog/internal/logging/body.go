package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
)

// bodyMethods are the methods whose request bodies are logged.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// captureBody reads up to limit bytes of the request body, restores r.Body so
// the handler sees the full stream, and decodes what it read into a payload
// tree. It returns nil when the body is empty, too large, of an unsupported
// content type or malformed.
func captureBody(r *http.Request, limit int64) any {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(buf), r.Body),
		Closer: r.Body,
	}
	if err != nil || len(buf) == 0 || int64(len(buf)) > limit {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(constants.HeaderContentType))
	switch {
	case mediaType == constants.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json"):
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		var body any
		if err := dec.Decode(&body); err != nil {
			return nil
		}
		return body
	case mediaType == constants.MIMEFormURLEncoded:
		values, err := url.ParseQuery(string(buf))
		if err != nil {
			return nil
		}
		return ValuesMap(values)
	default:
		return nil
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// HeaderMap converts h into the flat payload shape the header sanitizer
// expects: lowercased names, a string for a single value and a []any for
// repeated headers.
func HeaderMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for key, values := range h {
		out[strings.ToLower(key)] = flatten(values)
	}
	return out
}

// ValuesMap converts query or form values into a payload tree.
func ValuesMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vs := range values {
		out[key] = flatten(vs)
	}
	return out
}

func flatten(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
