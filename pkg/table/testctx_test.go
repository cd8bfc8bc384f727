package table

import (
	"context"
	"testing"
)

// testContext returns a context that is canceled when the test
// finishes, matching the semantics of (*testing.T).Context.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
