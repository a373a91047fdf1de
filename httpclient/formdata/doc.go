// Package formdata encodes named fields into a multipart/form-data body.
//
// A Form holds an ordered list of entries. Each entry is a plain value, an
// in-memory file (name, type, bytes) or a readable byte stream. Encoding fully
// materializes the body: files are copied and streams are drained before the
// closing boundary is written, so the result can be sent with a known length.
//
//	form := formdata.New()
//	form.Set("title", "report")
//	form.SetFile("attachment", formdata.File{Name: "a.csv", Type: "text/csv", Data: csv})
//	body, err := form.Encode(formdata.NewBoundary())
package formdata
