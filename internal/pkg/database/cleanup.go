package database

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retention is how long readings are kept.
const Retention = 8 * 24 * time.Hour

// Cleanup removes readings older than Retention.
func (db *Database) Cleanup(ctx context.Context) error {
	tag, err := db.conn.Exec(ctx, "DELETE FROM property WHERE time_stamp < $1", time.Now().Add(-Retention))
	if err != nil {
		return err
	}
	zap.L().Info("cleaned up readings", zap.Int64("deleted", tag.RowsAffected()))
	return nil
}
