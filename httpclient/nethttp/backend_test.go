package nethttp

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/httpclient/formdata"
	"github.com/kbukum/apicall/security"
	"github.com/kbukum/apicall/security/tlstest"
	"github.com/kbukum/apicall/testutil"
)

func newServer(t *testing.T) *testutil.EchoServer {
	t.Helper()
	srv := testutil.NewEchoServer()
	testutil.T(t).Setup(srv)
	return srv
}

func newBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return b
}

func do(t *testing.T, b *Backend, url string, opts httpclient.Options) (*httpclient.Response, error) {
	t.Helper()
	req, err := httpclient.Prepare(url, opts.WithDefaults(httpclient.DefaultOptions()))
	if err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	return b.Do(context.Background(), req)
}

func echoField(t *testing.T, resp *httpclient.Response, path string) string {
	t.Helper()
	return resp.Get(path).String()
}

func TestBackend_GetJSON(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/echo"), httpclient.Options{
		Headers:         map[string]string{"X-Trace": "t1"},
		URLSearchParams: map[string]any{"page": 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK || resp.StatusCode != 200 || resp.StatusMessage != "OK" {
		t.Errorf("status = %v %d %q", resp.OK, resp.StatusCode, resp.StatusMessage)
	}
	if !resp.HasJSON() {
		t.Fatal("expected JSON body")
	}
	if got := resp.JSON.(map[string]any)["method"]; got != "GET" {
		t.Errorf("method = %v", got)
	}
	if echoField(t, resp, "headers.X-Trace") != "t1" {
		t.Errorf("X-Trace not sent: %s", resp.Text())
	}
	if echoField(t, resp, "query.page") != "2" {
		t.Errorf("query not merged: %s", resp.Text())
	}
	if b.Name() != "server" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestBackend_PostJSON(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/echo"), httpclient.Options{
		Method:   httpclient.MethodPost,
		Headers:  map[string]string{"content-type": "text/plain"},
		JSONBody: map[string]any{"name": "apicall", "n": 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := echoField(t, resp, "contentType"); got != httpclient.JSONContentType {
		t.Errorf("content type = %q", got)
	}
	if got := echoField(t, resp, "body"); got != `{"n":1,"name":"apicall"}` {
		t.Errorf("body = %q", got)
	}
}

func TestBackend_NonSuccessIsNotAnError(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	for _, code := range []int{301, 404, 500} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			resp, err := do(t, b, srv.URL("/status/"+strconv.Itoa(code)), httpclient.Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.OK || resp.StatusCode != code {
				t.Errorf("OK = %v status = %d", resp.OK, resp.StatusCode)
			}
			if resp.Text() != "status "+strconv.Itoa(code) {
				t.Errorf("text = %q", resp.Text())
			}
			if resp.HasJSON() {
				t.Error("plain text must not be parsed")
			}
		})
	}
}

func TestBackend_StatusMessage(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/status/404"), httpclient.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusMessage != "Not Found" {
		t.Errorf("StatusMessage = %q", resp.StatusMessage)
	}
	if resp.Response.Status() != 404 || resp.Response.StatusText() != "Not Found" {
		t.Errorf("payload status = %d %q", resp.Response.Status(), resp.Response.StatusText())
	}
}

func TestBackend_Multipart(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	form := formdata.New()
	form.Append("title", "report")
	form.AppendFile("doc", formdata.File{Name: "a.txt", Type: "text/plain", Data: []byte("hello")})

	resp, err := do(t, b, srv.URL("/echo"), httpclient.Options{
		Method:      httpclient.MethodPost,
		RegularBody: form,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := echoField(t, resp, "fields.title"); got != "report" {
		t.Errorf("title = %q (%s)", got, resp.Text())
	}
	if got := echoField(t, resp, "files.doc"); got != "a.txt:text/plain:hello" {
		t.Errorf("doc = %q", got)
	}

	last, _ := srv.LastRequest()
	if !strings.HasPrefix(last.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
		t.Errorf("content type = %q", last.Header.Get("Content-Type"))
	}
	if last.Header.Get("Content-Length") != strconv.Itoa(len(last.Body)) {
		t.Errorf("content length = %q, body = %d bytes", last.Header.Get("Content-Length"), len(last.Body))
	}
}

func TestBackend_RawBody(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/echo"), httpclient.Options{
		Method:      httpclient.MethodPut,
		Headers:     map[string]string{"Content-Type": "text/csv"},
		RegularBody: "a,b\n1,2\n",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if echoField(t, resp, "contentType") != "text/csv" {
		t.Errorf("content type = %q", echoField(t, resp, "contentType"))
	}
	if echoField(t, resp, "body") != "a,b\n1,2\n" {
		t.Errorf("body = %q", echoField(t, resp, "body"))
	}
}

func TestBackend_DownloadProgress(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{ChunkSize: 1024})

	var progress []float64
	resp, err := do(t, b, srv.URL("/bytes/20000"), httpclient.Options{
		UploadProgress: func(p float64) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Response.Bytes()) != 20000 {
		t.Fatalf("body = %d bytes", len(resp.Response.Bytes()))
	}
	if len(progress) < 2 {
		t.Fatalf("expected several progress reports, got %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress not monotonic: %v", progress)
			break
		}
	}
	if last := progress[len(progress)-1]; last != 100 {
		t.Errorf("last progress = %v, want 100", last)
	}
}

func TestBackend_NoProgressWithoutLength(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	calls := 0
	resp, err := do(t, b, srv.URL("/stream/3"), httpclient.Options{
		UploadProgress: func(float64) { calls++ },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "chunk-0\nchunk-1\nchunk-2\n" {
		t.Errorf("text = %q", resp.Text())
	}
	if calls != 0 {
		t.Errorf("progress called %d times", calls)
	}
}

func TestBackend_JSONEdgeCases(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/json-empty"), httpclient.Options{})
	if err != nil {
		t.Fatalf("empty JSON body: unexpected error: %v", err)
	}
	if resp.HasJSON() {
		t.Error("empty body must not produce JSON")
	}

	_, err = do(t, b, srv.URL("/json-bad"), httpclient.Options{})
	if !errors.IsParse(err) {
		t.Errorf("malformed JSON: expected parse error, got %v", err)
	}

	resp, err = do(t, b, srv.URL("/json/422"), httpclient.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OK || !resp.HasJSON() || resp.Get("status").Int() != 422 {
		t.Errorf("422 JSON = %v %s", resp.HasJSON(), resp.Text())
	}
}

func TestBackend_Created(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/json/201"), httpclient.Options{Method: httpclient.MethodPost})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK || resp.StatusCode != 201 || resp.StatusMessage != "Created" {
		t.Errorf("status = %v %d %q", resp.OK, resp.StatusCode, resp.StatusMessage)
	}
	if !resp.HasJSON() || resp.Get("status").Int() != 201 {
		t.Errorf("json = %v %s", resp.HasJSON(), resp.Text())
	}
}

// rawServer answers every connection with reply and closes it.
func rawServer(t *testing.T, reply string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				if _, err := http.ReadRequest(bufio.NewReader(c)); err != nil {
					return
				}
				c.Write([]byte(reply))
			}(conn)
		}
	}()
	return "http://" + ln.Addr().String() + "/"
}

func TestBackend_OversizedContentLength(t *testing.T) {
	url := rawServer(t, "HTTP/1.1 200 OK\r\nContent-Length: 900000000000000\r\n\r\nhi")
	b := newBackend(t, Config{})

	var progress []float64
	resp, err := do(t, b, url, httpclient.Options{
		UploadProgress: func(p float64) { progress = append(progress, p) },
	})
	if resp != nil {
		t.Errorf("expected no response for a truncated body, got %d", resp.StatusCode)
	}
	if !errors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	for _, p := range progress {
		if p >= 100 {
			t.Errorf("progress reached %v on a truncated body", p)
		}
	}
}

func TestBackend_CharsetDecoding(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/latin1"), httpclient.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "café" {
		t.Errorf("text = %q", resp.Text())
	}
	if len(resp.Response.Bytes()) != 4 {
		t.Errorf("raw = %v", resp.Response.Bytes())
	}
}

func TestBackend_MultiValueHeaders(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	resp, err := do(t, b, srv.URL("/headers"), httpclient.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Header("x-multi") != "a, b" {
		t.Errorf("X-Multi = %q", resp.Header("x-multi"))
	}
}

func TestBackend_Redirects(t *testing.T) {
	srv := newServer(t)

	resp, err := do(t, newBackend(t, Config{}), srv.URL("/redirect"), httpclient.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 302 || resp.Header("Location") != "/echo" {
		t.Errorf("status = %d location = %q", resp.StatusCode, resp.Header("Location"))
	}

	resp, err = do(t, newBackend(t, Config{FollowRedirects: true}), srv.URL("/redirect"), httpclient.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 || echoField(t, resp, "path") != "/echo" {
		t.Errorf("status = %d body = %s", resp.StatusCode, resp.Text())
	}
}

func TestBackend_TransportError(t *testing.T) {
	srv := testutil.NewEchoServer()
	cleanup, err := testutil.Setup(srv)
	if err != nil {
		t.Fatal(err)
	}
	url := srv.URL("/echo")
	_ = cleanup()

	_, err = do(t, newBackend(t, Config{}), url, httpclient.Options{})
	if !errors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("transport errors should be retryable")
	}
}

func TestBackend_ContextDeadline(t *testing.T) {
	srv := newServer(t)
	b := newBackend(t, Config{})

	req, err := httpclient.Prepare(srv.URL("/slow?for=5s"), httpclient.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = b.Do(ctx, req)
	if !errors.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestBackend_InvalidScheme(t *testing.T) {
	b := newBackend(t, Config{})
	_, err := do(t, b, "ftp://example.com/file", httpclient.Options{})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBackend_TLS(t *testing.T) {
	srv := testutil.NewEchoServer()
	if err := srv.StartTLS(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	_, err := do(t, newBackend(t, Config{}), srv.URL("/echo"), httpclient.Options{})
	if !errors.IsTransport(err) {
		t.Fatalf("untrusted certificate: expected transport error, got %v", err)
	}

	b := newBackend(t, Config{TLS: &security.TLSConfig{CAFile: tlstest.ServerCAFile(t, srv.Server())}})
	resp, err := do(t, b, srv.URL("/echo"), httpclient.Options{})
	if err != nil {
		t.Fatalf("trusted certificate: unexpected error: %v", err)
	}
	if !resp.OK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestConfig_Validate(t *testing.T) {
	if _, err := New(Config{Timeout: -time.Second}); err == nil {
		t.Error("expected error for negative timeout")
	}
	if _, err := New(Config{TLS: &security.TLSConfig{CertFile: "c.pem"}}); err == nil {
		t.Error("expected error for cert without key")
	}

	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.ChunkSize != defaultChunkSize {
		t.Errorf("ChunkSize = %d", cfg.ChunkSize)
	}
}
