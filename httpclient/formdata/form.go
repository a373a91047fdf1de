package formdata

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
)

// DefaultFileType is used for file entries without a declared type.
const DefaultFileType = "application/octet-stream"

// Kind identifies what an entry carries.
type Kind int

const (
	// KindValue is a plain field value.
	KindValue Kind = iota
	// KindFile is an in-memory file with a name and a content type.
	KindFile
	// KindStream is a byte stream drained at encode time.
	KindStream
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFile:
		return "file"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// File is a file-like field: a name, an optional content type and its bytes.
type File struct {
	// Name is the filename sent in the Content-Disposition header.
	Name string
	// Type is the MIME type. Empty means application/octet-stream.
	Type string
	// Data is the file content. Used if Reader is nil.
	Data []byte
	// Reader is read to completion when Data is nil.
	Reader io.Reader
}

// Entry is one named field of a Form.
type Entry struct {
	Name  string
	Kind  Kind
	Value string
	File  File

	stream   io.Reader
	once     sync.Once
	drained  []byte
	drainErr error
}

// Form is an ordered set of multipart fields.
type Form struct {
	mu      sync.RWMutex
	entries []*Entry
}

// New creates an empty form.
func New() *Form {
	return &Form{}
}

// Append adds a plain value. Non-string values use their string form.
func (f *Form) Append(name string, value any) {
	f.add(&Entry{Name: name, Kind: KindValue, Value: Stringify(value)})
}

// Set replaces the first entry called name with a plain value and removes the
// others. The value is appended when no entry has that name.
func (f *Form) Set(name string, value any) {
	f.replace(&Entry{Name: name, Kind: KindValue, Value: Stringify(value)})
}

// AppendFile adds a file entry.
func (f *Form) AppendFile(name string, file File) {
	f.add(&Entry{Name: name, Kind: KindFile, File: file})
}

// SetFile is Set for file entries.
func (f *Form) SetFile(name string, file File) {
	f.replace(&Entry{Name: name, Kind: KindFile, File: file})
}

// AppendStream adds a stream entry. The stream is drained on first encode and
// the drained bytes are reused by later encodes.
func (f *Form) AppendStream(name string, r io.Reader) {
	f.add(&Entry{Name: name, Kind: KindStream, stream: r})
}

// Delete removes every entry called name.
func (f *Form) Delete(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	f.entries = kept
}

// Has reports whether an entry called name exists.
func (f *Form) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (f *Form) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Entries returns the entries in insertion order.
func (f *Form) Entries() []*Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *Form) replace(e *Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	replaced := false
	for _, old := range f.entries {
		if old.Name != e.Name {
			kept = append(kept, old)
			continue
		}
		if !replaced {
			kept = append(kept, e)
			replaced = true
		}
	}
	if !replaced {
		kept = append(kept, e)
	}
	f.entries = kept
}

func (f *Form) add(e *Entry) {
	f.mu.Lock()
	f.entries = append(f.entries, e)
	f.mu.Unlock()
}

// Encode serializes the form with the given boundary:
//
//	--BOUNDARY\r\n
//	Content-Disposition: form-data; name="<name>"[; filename="<filename>"]\r\n
//	[Content-Type: <type>\r\n]
//	\r\n
//	<value>\r\n
//	--BOUNDARY--\r\n
//
// The same form and boundary always produce the same bytes.
func (f *Form) Encode(boundary string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("formdata: %w", err)
	}

	for _, e := range f.Entries() {
		data, err := e.content()
		if err != nil {
			return nil, fmt.Errorf("formdata: reading field %q: %w", e.Name, err)
		}

		header := make(textproto.MIMEHeader)
		disposition := `form-data; name="` + escapeQuotes(e.Name) + `"`
		if e.Kind == KindFile {
			disposition += `; filename="` + escapeQuotes(e.File.Name) + `"`
			ct := e.File.Type
			if ct == "" {
				ct = DefaultFileType
			}
			header.Set("Content-Type", ct)
		}
		header.Set("Content-Disposition", disposition)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("formdata: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("formdata: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("formdata: %w", err)
	}
	return buf.Bytes(), nil
}

// content returns the bytes written for the entry, draining readers once.
func (e *Entry) content() ([]byte, error) {
	switch e.Kind {
	case KindValue:
		return []byte(e.Value), nil
	case KindFile:
		if e.File.Data != nil || e.File.Reader == nil {
			return e.File.Data, nil
		}
		return e.drain(e.File.Reader)
	case KindStream:
		return e.drain(e.stream)
	default:
		return nil, fmt.Errorf("unknown entry kind %d", e.Kind)
	}
}

func (e *Entry) drain(r io.Reader) ([]byte, error) {
	e.once.Do(func() {
		if r == nil {
			return
		}
		e.drained, e.drainErr = io.ReadAll(r)
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
	})
	return e.drained, e.drainErr
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
