package cli

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/httpclient/formdata"
)

var methods = map[string]httpclient.Method{
	"GET":     httpclient.MethodGet,
	"POST":    httpclient.MethodPost,
	"PUT":     httpclient.MethodPut,
	"PATCH":   httpclient.MethodPatch,
	"DELETE":  httpclient.MethodDelete,
	"OPTIONS": httpclient.MethodOptions,
	"HEAD":    httpclient.MethodHead,
}

// splitTarget returns the method and URL from the positional arguments.
// A lone argument is the URL.
func splitTarget(args []string) (httpclient.Method, string, error) {
	switch len(args) {
	case 1:
		return "", args[0], nil
	case 2:
		m, ok := methods[strings.ToUpper(args[0])]
		if !ok {
			return "", "", fmt.Errorf("unsupported method %q", args[0])
		}
		return m, args[1], nil
	default:
		return "", "", fmt.Errorf("expected [METHOD] URL, got %d arguments", len(args))
	}
}

// parseHeaders reads "Name: value" items. Repeated names are joined with
// ", " like on the wire.
func parseHeaders(items []string) (map[string]string, error) {
	raw := make(map[string]any, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want Name: value", item)
		}
		value = strings.TrimSpace(value)
		switch prev := raw[name].(type) {
		case nil:
			raw[name] = value
		case string:
			raw[name] = []string{prev, value}
		case []string:
			raw[name] = append(prev, value)
		}
	}
	return httpclient.NormalizeHeaders(raw), nil
}

// parseQuery reads k=v items. Later items win.
func parseQuery(items []string) (map[string]any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid query parameter %q, want key=value", item)
		}
		params[k] = v
	}
	return params, nil
}

// parseJSON decodes inline JSON text or @file.
func parseJSON(text string) (any, error) {
	data, err := readArg(text)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid --json value: %w", err)
	}
	if v == nil {
		// JSON null still selects the JSON body path.
		return json.RawMessage("null"), nil
	}
	return v, nil
}

// parseForm reads name=value and name=@path items into a multipart form.
func parseForm(items []string) (*formdata.Form, error) {
	form := formdata.New()
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid form field %q, want name=value or name=@file", item)
		}
		path, isFile := strings.CutPrefix(value, "@")
		if !isFile {
			form.Append(name, value)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("form field %s: %w", name, err)
		}
		form.AppendFile(name, formdata.File{
			Name: filepath.Base(path),
			Type: mime.TypeByExtension(filepath.Ext(path)),
			Data: data,
		})
	}
	return form, nil
}

// readArg returns s, or the contents of the file when s starts with @.
func readArg(s string) ([]byte, error) {
	if path, ok := strings.CutPrefix(s, "@"); ok {
		return os.ReadFile(path)
	}
	return []byte(s), nil
}
