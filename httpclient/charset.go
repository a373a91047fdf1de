package httpclient

import (
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// DecodeText converts raw to UTF-8 using the charset declared in
// contentType. Bodies without a declared charset, or with an unknown one,
// are read as UTF-8.
func DecodeText(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}
	label := declaredCharset(contentType)
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return string(raw)
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return string(raw)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(out) {
		return string(raw)
	}
	return string(out)
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}
