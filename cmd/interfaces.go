package cmd

import (
	"context"
)

// cleaner deletes readings past their retention.
type cleaner interface {
	Cleanup(ctx context.Context) error
}
