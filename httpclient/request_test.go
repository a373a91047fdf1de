package httpclient

import (
	"io"
	"strings"
	"testing"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient/formdata"
)

func TestPrepare_Defaults(t *testing.T) {
	req, err := Prepare("http://h/p", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != MethodGet {
		t.Errorf("Method = %q", req.Method)
	}
	if req.Kind != BodyNone {
		t.Errorf("Kind = %v", req.Kind)
	}
	if req.Headers == nil {
		t.Error("Headers should never be nil")
	}
	if req.URL != "http://h/p" {
		t.Errorf("URL = %q", req.URL)
	}
}

func TestPrepare_MergesQuery(t *testing.T) {
	req, err := Prepare("http://h/p?a=1", Options{URLSearchParams: map[string]any{"a": 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.URL != "http://h/p?a=2" {
		t.Errorf("URL = %q", req.URL)
	}
}

func TestPrepare_JSONWinsOverRegular(t *testing.T) {
	req, err := Prepare("http://h", Options{
		Method:      MethodPost,
		JSONBody:    map[string]int{"a": 1},
		RegularBody: "ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != BodyJSON {
		t.Fatalf("Kind = %v, want json", req.Kind)
	}
	if string(req.JSON) != `{"a":1}` {
		t.Errorf("JSON = %s", req.JSON)
	}
	if req.Raw != nil {
		t.Error("regular body should be ignored")
	}
}

func TestPrepare_JSONEncodeFailure(t *testing.T) {
	_, err := Prepare("http://h", Options{JSONBody: map[string]any{"ch": make(chan int)}})
	if !errors.IsEncode(err) {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func TestPrepare_Multipart(t *testing.T) {
	form := formdata.New()
	form.Append("a", "1")

	req, err := Prepare("http://h", Options{Method: MethodPost, RegularBody: form})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Kind != BodyMultipart || req.Form != form {
		t.Fatalf("Kind = %v", req.Kind)
	}
	if req.Boundary == "" {
		t.Fatal("expected boundary")
	}

	body, ct, err := req.EncodeMultipart()
	if err != nil {
		t.Fatalf("EncodeMultipart: %v", err)
	}
	if ct != "multipart/form-data; boundary="+req.Boundary {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(string(body), `name="a"`) {
		t.Errorf("body = %q", body)
	}
}

func TestPrepare_RawBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		wantLen int64
	}{
		{"string", "hello", 5},
		{"bytes", []byte("hey"), 3},
		{"reader", io.NopCloser(strings.NewReader("stream")), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Prepare("http://h", Options{Method: MethodPut, RegularBody: tt.body})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Kind != BodyRaw {
				t.Fatalf("Kind = %v", req.Kind)
			}
			r, n := req.RawReader()
			if n != tt.wantLen {
				t.Errorf("length = %d, want %d", n, tt.wantLen)
			}
			if r == nil {
				t.Fatal("nil reader")
			}
		})
	}
}

func TestPrepare_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
		opts Options
	}{
		{"empty url", " ", Options{}},
		{"unsupported body", "http://h", Options{RegularBody: 42}},
		{"bad method", "http://h", Options{Method: "CONNECT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.url, tt.opts)
			if !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPrepare_CopiesHeaders(t *testing.T) {
	h := map[string]string{"A": "1"}
	req, _ := Prepare("http://h", Options{Headers: h})
	req.Headers["B"] = "2"
	if _, ok := h["B"]; ok {
		t.Error("request shares the caller's header map")
	}
}

func TestRequest_Report(t *testing.T) {
	var got []float64
	req := &Request{Progress: func(p float64) { got = append(got, p) }}
	req.Report(25, 100)
	req.Report(100, 100)
	req.Report(10, 0)
	req.Report(10, -1)
	if len(got) != 2 || got[0] != 25 || got[1] != 100 {
		t.Errorf("progress = %v", got)
	}

	(&Request{}).Report(1, 2) // no callback, no panic
}

func TestBodyKind_String(t *testing.T) {
	for kind, want := range map[BodyKind]string{
		BodyNone: "none", BodyJSON: "json", BodyMultipart: "multipart", BodyRaw: "raw",
	} {
		if kind.String() != want {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
