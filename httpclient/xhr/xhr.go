package xhr

// ReadyState mirrors XMLHttpRequest.readyState.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "UNSENT"
	case Opened:
		return "OPENED"
	case HeadersReceived:
		return "HEADERS_RECEIVED"
	case Loading:
		return "LOADING"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Response types understood by SetResponseType.
const (
	ResponseTypeText        = ""
	ResponseTypeJSON        = "json"
	ResponseTypeArrayBuffer = "arraybuffer"
)

// ProgressEvent is an upload progress notification.
type ProgressEvent struct {
	LengthComputable bool
	Loaded           int64
	Total            int64
}

// XMLHttpRequest is the subset of the browser object the backend uses.
// Send accepts nil, string or []byte.
type XMLHttpRequest interface {
	Open(method, url string) error
	SetRequestHeader(name, value string) error
	SetResponseType(responseType string)
	ResponseType() string
	OnUploadProgress(fn func(ProgressEvent))
	OnReadyStateChange(fn func())
	Send(body any) error
	Abort()

	ReadyState() ReadyState
	Status() int
	StatusText() string
	GetAllResponseHeaders() string
	// Response returns the body as a string, a decoded JSON value or a
	// []byte, depending on the response type.
	Response() any
}

// Factory creates a fresh request object per call.
type Factory func() XMLHttpRequest
