package contxt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}

func TestWithTimeout_TestMode(t *testing.T) {
	t.Setenv("CONTEXT_TEST", "1")
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond)
	_, ok := ctx.Deadline()
	assert.False(t, ok)
	cancel()
	assert.Error(t, ctx.Err())
}
