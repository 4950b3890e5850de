package database

import (
	"context"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

// Write stores a batch of readings in one transaction.
func (db *Database) Write(ctx context.Context, props model.Properties) error {
	tx, err := db.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range props {
		if _, err := tx.Exec(ctx, `
			INSERT INTO property (time_stamp, unit_of_measurement, value, identifier, slug)
			VALUES ($1, $2, $3, $4, $5)
		`, p.TimeStamp, p.Unit, p.Value, p.Identifier, p.Slug); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (db *Database) RegisterDevice(ctx context.Context, device *model.Device) error {
	_, err := db.conn.Exec(ctx, `
		INSERT INTO device (id, name, device_type, model, serial_number)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING;`, device.ID, device.Name, device.Type, device.Model, device.SerialNumber)
	return err
}
