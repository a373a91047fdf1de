package httpclient

import (
	"net/http"
	"strings"
)

// NormalizeHeaders flattens a loosely typed header map into single string
// values. String values pass through, string lists are joined with ", ",
// and any other value is dropped. Header names are kept as given.
func NormalizeHeaders(src map[string]any) map[string]string {
	out := make(map[string]string, len(src))
	for name, v := range src {
		switch val := v.(type) {
		case string:
			out[name] = val
		case []string:
			out[name] = strings.Join(val, ", ")
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					parts = nil
					break
				}
				parts = append(parts, s)
			}
			if parts != nil {
				out[name] = strings.Join(parts, ", ")
			}
		}
	}
	return out
}

// FromHTTPHeader flattens net/http headers. Names keep their canonical form.
func FromHTTPHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// ParseHeaderText parses a raw header block of "Name: value" lines separated
// by CRLF or LF. Values are trimmed, blank lines are skipped and a line
// without ": " maps to an empty value. A repeated name keeps the last value.
func ParseHeaderText(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, _ := strings.Cut(line, ": ")
		out[name] = strings.TrimSpace(value)
	}
	return out
}

// lookupHeader finds name case-insensitively.
func lookupHeader(h map[string]string, name string) (string, bool) {
	if v, ok := h[name]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
