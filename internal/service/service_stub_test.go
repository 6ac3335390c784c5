//go:build !windows

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStub_RunsInForeground(t *testing.T) {
	assert.False(t, IsWindowsService())

	called := false
	s := New(zap.NewNop(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, s.Run())
	assert.True(t, called)

	boom := errors.New("listen tcp: address in use")
	s = New(zap.NewNop(), func(context.Context) error { return boom })
	assert.ErrorIs(t, s.Run(), boom)
}
