package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockCloser struct {
	shouldFail bool
	closed     bool
}

func (m *mockCloser) Close() error {
	m.closed = true
	if m.shouldFail {
		return errors.New("mock close error")
	}
	return nil
}

func TestCloseAndLog(t *testing.T) {
	t.Run("nil closer should not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			CloseAndLog(nil)
		})
	})

	t.Run("successful close", func(t *testing.T) {
		closer := &mockCloser{shouldFail: false}
		CloseAndLog(closer)
		assert.True(t, closer.closed, "Close should have been called")
	})

	t.Run("failed close logs error", func(t *testing.T) {
		closer := &mockCloser{shouldFail: true}
		// The function will log an error, but should not panic
		assert.NotPanics(t, func() {
			CloseAndLog(closer)
		})
		assert.True(t, closer.closed, "Close should have been called even though it failed")
	})
}
