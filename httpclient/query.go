package httpclient

import (
	"net/url"
	"sort"
	"strings"

	"github.com/kbukum/apicall/httpclient/formdata"
)

type queryPair struct {
	key, value string
}

// MergeQuery returns rawURL with params merged into its query string.
//
// Existing parameters keep their order. A parameter named in params replaces
// the first occurrence of that name and drops any later duplicates; names not
// already present are appended in sorted order. Values are stringified with
// formdata.Stringify. A nil params map returns rawURL untouched, and a query
// that ends up empty produces no trailing "?". A fragment is preserved.
func MergeQuery(rawURL string, params map[string]any) string {
	if params == nil {
		return rawURL
	}

	rest, fragment, hasFragment := strings.Cut(rawURL, "#")
	base, rawQuery, _ := strings.Cut(rest, "?")

	pairs := parseQuery(rawQuery)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = setQuery(pairs, k, formdata.Stringify(params[k]))
	}

	out := base
	if q := encodeQuery(pairs); q != "" {
		out += "?" + q
	}
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

// parseQuery splits a query string the way application/x-www-form-urlencoded
// parsers do: empty segments are skipped and a missing "=" means an empty
// value. Undecodable escapes are kept verbatim.
func parseQuery(raw string) []queryPair {
	var pairs []queryPair
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		k, v, _ := strings.Cut(seg, "=")
		pairs = append(pairs, queryPair{key: unescapeQuery(k), value: unescapeQuery(v)})
	}
	return pairs
}

func unescapeQuery(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}

func setQuery(pairs []queryPair, key, value string) []queryPair {
	out := pairs[:0:0]
	found := false
	for _, p := range pairs {
		if p.key != key {
			out = append(out, p)
			continue
		}
		if !found {
			out = append(out, queryPair{key: key, value: value})
			found = true
		}
	}
	if !found {
		out = append(out, queryPair{key: key, value: value})
	}
	return out
}

func encodeQuery(pairs []queryPair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}
