package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/sungrow-modbus/internal/pkg/model"
)

// GetProperties returns the readings of one sensor between from and to,
// newest first. Without a range the last two days are returned.
func (db *Database) GetProperties(ctx context.Context, identifier, slug string, from, to *time.Time) (model.Properties, error) {
	if from == nil || to == nil {
		f, t := time.Now().AddDate(0, 0, -2), time.Now()
		from, to = &f, &t
	}
	const query = `
	SELECT id, time_stamp, unit_of_measurement, value, identifier, slug
	FROM property
	WHERE identifier = $1 AND slug = $2 AND time_stamp BETWEEN $3 AND $4
	ORDER BY time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query, identifier, slug, *from, *to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

// GetLatestProperties returns the newest reading of every sensor of a device.
func (db *Database) GetLatestProperties(ctx context.Context, identifier string) (model.Properties, error) {
	const query = `
	SELECT DISTINCT ON (slug) id, time_stamp, unit_of_measurement, value, identifier, slug
	FROM property
	WHERE identifier = $1
	ORDER BY slug, time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query, identifier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProperties(rows)
}

func (db *Database) GetDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := db.conn.Query(ctx, `SELECT id, name, device_type, model, serial_number FROM device ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Model, &d.SerialNumber); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func scanProperties(rows pgx.Rows) (model.Properties, error) {
	var properties model.Properties
	for rows.Next() {
		var property model.Property
		if err := rows.Scan(&property.Id, &property.TimeStamp, &property.Unit, &property.Value, &property.Identifier, &property.Slug); err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return properties, nil
		}
		return nil, err
	}

	return properties, nil
}
