package testutil

import "context"

// TestComponent is a fixture with a start/stop lifecycle that can be reset
// between test cases.
type TestComponent interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Reset restores the component to its initial state.
	Reset(ctx context.Context) error
}
