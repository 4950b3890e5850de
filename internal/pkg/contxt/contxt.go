package contxt

import (
	"context"
	"os"
	"time"
)

// WithTimeout bounds parent by timeout. Setting CONTEXT_TEST drops the
// deadline so code stepped through in a debugger does not time out.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if os.Getenv("CONTEXT_TEST") != "" {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
