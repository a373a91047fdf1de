// Package version reports build information for the apicall binary.
//
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/apicall/version.Version=1.2.0" ./cmd/apicall
//
// Unstamped values fall back to the module build info recorded by the Go
// toolchain.
package version
