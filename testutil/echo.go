package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RecordedRequest is a request as the echo server received it.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// EchoReply is the JSON document /echo answers with.
type EchoReply struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       map[string]string `json:"query"`
	Headers     map[string]string `json:"headers"`
	ContentType string            `json:"contentType"`
	Body        string            `json:"body"`
	Fields      map[string]string `json:"fields,omitempty"`
	Files       map[string]string `json:"files,omitempty"`
}

// EchoServer is a gin-backed test server.
type EchoServer struct {
	engine *gin.Engine
	ts     *httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	started  bool
}

var _ TestComponent = (*EchoServer)(nil)

// NewEchoServer creates an unstarted echo server.
func NewEchoServer() *EchoServer {
	s := &EchoServer{engine: gin.New()}
	s.engine.Use(s.record)
	s.routes()
	return s
}

// GinEngine returns the engine so tests can add routes before Start.
func (s *EchoServer) GinEngine() *gin.Engine { return s.engine }

func (s *EchoServer) Name() string { return "echo-server" }

// Start serves the engine on a loopback listener.
func (s *EchoServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.ts = httptest.NewServer(s.engine)
	s.started = true
	return nil
}

// StartTLS serves the engine over TLS with the httptest certificate.
func (s *EchoServer) StartTLS(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.ts = httptest.NewTLSServer(s.engine)
	s.started = true
	return nil
}

// Stop closes the server.
func (s *EchoServer) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.ts.Close()
	s.started = false
	return nil
}

// Reset forgets recorded requests.
func (s *EchoServer) Reset(_ context.Context) error {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
	return nil
}

// BaseURL returns the server root, or "" before Start.
func (s *EchoServer) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil || !s.started {
		return ""
	}
	return s.ts.URL
}

// URL joins path onto the base URL.
func (s *EchoServer) URL(path string) string {
	return s.BaseURL() + path
}

// Server returns the underlying httptest server.
func (s *EchoServer) Server() *httptest.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ts
}

// Requests returns a copy of the recorded requests.
func (s *EchoServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, if any.
func (s *EchoServer) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *EchoServer) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header.Clone(),
		Body:     body,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *EchoServer) routes() {
	s.engine.Any("/echo", s.echo)

	s.engine.Any("/status/:code", func(c *gin.Context) {
		code, err := strconv.Atoi(c.Param("code"))
		if err != nil || code < 100 || code > 999 {
			c.String(http.StatusBadRequest, "bad status")
			return
		}
		c.String(code, "status %d", code)
	})

	s.engine.GET("/json/:code", func(c *gin.Context) {
		code, _ := strconv.Atoi(c.Param("code"))
		c.JSON(code, gin.H{"status": code, "message": http.StatusText(code)})
	})

	s.engine.GET("/json-empty", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", nil)
	})

	s.engine.GET("/json-bad", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte("{not json"))
	})

	s.engine.GET("/latin1", func(c *gin.Context) {
		// "café" in ISO-8859-1
		c.Data(http.StatusOK, "text/plain; charset=iso-8859-1", []byte{'c', 'a', 'f', 0xe9})
	})

	s.engine.GET("/bytes/:size", func(c *gin.Context) {
		n, err := strconv.Atoi(c.Param("size"))
		if err != nil || n < 0 {
			c.String(http.StatusBadRequest, "bad size")
			return
		}
		data := bytes.Repeat([]byte("x"), n)
		c.Header("Content-Length", strconv.Itoa(n))
		c.Data(http.StatusOK, "application/octet-stream", data)
	})

	s.engine.GET("/stream/:chunks", func(c *gin.Context) {
		n, _ := strconv.Atoi(c.Param("chunks"))
		c.Header("Content-Type", "text/plain")
		for i := 0; i < n; i++ {
			fmt.Fprintf(c.Writer, "chunk-%d\n", i)
			c.Writer.Flush()
		}
	})

	s.engine.GET("/redirect", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/echo")
	})

	s.engine.GET("/headers", func(c *gin.Context) {
		c.Writer.Header().Add("X-Multi", "a")
		c.Writer.Header().Add("X-Multi", "b")
		c.String(http.StatusOK, "ok")
	})

	s.engine.GET("/slow", func(c *gin.Context) {
		d, err := time.ParseDuration(c.DefaultQuery("for", "2s"))
		if err != nil {
			d = 2 * time.Second
		}
		select {
		case <-time.After(d):
			c.String(http.StatusOK, "done")
		case <-c.Request.Context().Done():
		}
	})
}

func (s *EchoServer) echo(c *gin.Context) {
	reply := EchoReply{
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Query:       map[string]string{},
		Headers:     map[string]string{},
		ContentType: c.GetHeader("Content-Type"),
	}
	for k, v := range c.Request.URL.Query() {
		reply.Query[k] = strings.Join(v, ",")
	}
	for k, v := range c.Request.Header {
		reply.Headers[k] = strings.Join(v, ", ")
	}

	if strings.HasPrefix(reply.ContentType, "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			c.String(http.StatusBadRequest, "bad multipart: %v", err)
			return
		}
		reply.Fields = map[string]string{}
		reply.Files = map[string]string{}
		for name, values := range c.Request.MultipartForm.Value {
			reply.Fields[name] = strings.Join(values, ",")
		}
		for name, headers := range c.Request.MultipartForm.File {
			f, err := headers[0].Open()
			if err != nil {
				continue
			}
			data, _ := io.ReadAll(f)
			f.Close()
			reply.Files[name] = headers[0].Filename + ":" + headers[0].Header.Get("Content-Type") + ":" + string(data)
		}
	} else {
		body, _ := io.ReadAll(c.Request.Body)
		reply.Body = string(body)
	}

	c.JSON(http.StatusOK, reply)
}
