//go:build js && wasm

package xhr

import (
	"encoding/json"
	"fmt"
	"syscall/js"
)

// NewNative returns a factory of the browser's own XMLHttpRequest objects.
func NewNative() Factory {
	return func() XMLHttpRequest {
		return &native{v: js.Global().Get("XMLHttpRequest").New()}
	}
}

type native struct {
	v     js.Value
	funcs []js.Func
}

// call invokes a method and turns a thrown JS exception into an error.
func (n *native) call(method string, args ...any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = fmt.Errorf("xhr: %s: %s", method, jsErr.Error())
				return
			}
			panic(r)
		}
	}()
	n.v.Call(method, args...)
	return nil
}

func (n *native) Open(method, url string) error {
	return n.call("open", method, url, true)
}

func (n *native) SetRequestHeader(name, value string) error {
	return n.call("setRequestHeader", name, value)
}

func (n *native) SetResponseType(t string) { n.v.Set("responseType", t) }

func (n *native) ResponseType() string { return n.v.Get("responseType").String() }

func (n *native) OnUploadProgress(fn func(ProgressEvent)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		e := args[0]
		fn(ProgressEvent{
			LengthComputable: e.Get("lengthComputable").Bool(),
			Loaded:           int64(e.Get("loaded").Float()),
			Total:            int64(e.Get("total").Float()),
		})
		return nil
	})
	n.funcs = append(n.funcs, f)
	n.v.Get("upload").Call("addEventListener", "progress", f)
}

func (n *native) OnReadyStateChange(fn func()) {
	f := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		if n.ReadyState() == Done {
			n.release()
		}
		return nil
	})
	n.funcs = append(n.funcs, f)
	n.v.Set("onreadystatechange", f)
}

func (n *native) Send(body any) error {
	switch b := body.(type) {
	case nil:
		return n.call("send")
	case string:
		return n.call("send", b)
	case []byte:
		arr := js.Global().Get("Uint8Array").New(len(b))
		js.CopyBytesToJS(arr, b)
		return n.call("send", arr)
	default:
		return fmt.Errorf("xhr: unsupported body type %T", body)
	}
}

func (n *native) Abort() { n.v.Call("abort") }

func (n *native) ReadyState() ReadyState { return ReadyState(n.v.Get("readyState").Int()) }

func (n *native) Status() int { return n.v.Get("status").Int() }

func (n *native) StatusText() string { return n.v.Get("statusText").String() }

func (n *native) GetAllResponseHeaders() string {
	return n.v.Call("getAllResponseHeaders").String()
}

func (n *native) Response() any {
	r := n.v.Get("response")
	switch n.ResponseType() {
	case ResponseTypeJSON:
		if r.IsNull() || r.IsUndefined() {
			return nil
		}
		text := js.Global().Get("JSON").Call("stringify", r).String()
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil
		}
		return v
	case ResponseTypeArrayBuffer:
		if r.IsNull() || r.IsUndefined() {
			return nil
		}
		arr := js.Global().Get("Uint8Array").New(r)
		out := make([]byte, arr.Get("length").Int())
		js.CopyBytesToGo(out, arr)
		return out
	default:
		if r.Type() != js.TypeString {
			return ""
		}
		return r.String()
	}
}

// release frees the Go callbacks once the request is finished.
func (n *native) release() {
	n.v.Set("onreadystatechange", js.Null())
	for _, f := range n.funcs {
		f.Release()
	}
	n.funcs = nil
}
