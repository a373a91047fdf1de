// Package xhr is the browser backend: it drives an XMLHttpRequest-shaped
// object through open, header setup, send and the ready-state events.
//
// A 2xx completion returns the response and a nil error. Any other completed
// status returns the filled response together with an errors.Status error,
// unless WithAcceptAnyStatus is set. Progress callbacks receive upload
// progress.
//
// Two request implementations exist. NewNative wraps the browser's object
// and is only built for js/wasm. NewEmulated reproduces the object's event
// model over net/http for everywhere else.
//
//	b := xhr.New(xhr.NewEmulated(http.DefaultClient))
//	resp, err := b.Do(ctx, req)
//	if errors.IsStatus(err) {
//	    // resp is still filled in
//	}
package xhr
