package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Reading kinds as stored in the readings table. One row holds one
// scalar; triple-axis sensors store a row per axis.
const (
	ReadingBattery     = "battery"
	ReadingHeartRate   = "heart_rate"
	ReadingLight       = "light"
	ReadingTemperature = "temperature"
	ReadingHumidity    = "humidity"
	ReadingPressure    = "pressure"
	ReadingAccelX      = "accel_x"
	ReadingAccelY      = "accel_y"
	ReadingAccelZ      = "accel_z"
	ReadingGyroX       = "gyro_x"
	ReadingGyroY       = "gyro_y"
	ReadingGyroZ       = "gyro_z"
	ReadingMagnetX     = "magnet_x"
	ReadingMagnetY     = "magnet_y"
	ReadingMagnetZ     = "magnet_z"
)

type Reading struct {
	ID         int64
	Kind       string
	Value      float64
	RecordedAt time.Time
}

type ReadingRepo struct {
	db *sql.DB
}

func NewReadingRepo(db *sql.DB) *ReadingRepo {
	return &ReadingRepo{db: db}
}

func (r *ReadingRepo) Insert(ctx context.Context, reading Reading) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO readings(kind, value, recorded_at)
		VALUES (?, ?, ?)
	`, reading.Kind, reading.Value, toUnixMillis(reading.RecordedAt))
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// InsertBatch writes one sensor cycle in a single transaction.
func (r *ReadingRepo) InsertBatch(ctx context.Context, readings []Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin readings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, reading := range readings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO readings(kind, value, recorded_at)
			VALUES (?, ?, ?)
		`, reading.Kind, reading.Value, toUnixMillis(reading.RecordedAt)); err != nil {
			return fmt.Errorf("insert reading batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit readings tx: %w", err)
	}
	return nil
}

// ListRecent returns up to limit readings of one kind, newest first.
func (r *ReadingRepo) ListRecent(ctx context.Context, kind string, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, value, recorded_at
		FROM readings
		WHERE kind = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Reading
	for rows.Next() {
		var (
			reading  Reading
			recorded int64
		)
		if err := rows.Scan(&reading.ID, &reading.Kind, &reading.Value, &recorded); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		reading.RecordedAt = fromUnixMillis(recorded)
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

// PruneBefore deletes readings recorded before the cutoff.
func (r *ReadingRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM readings WHERE recorded_at < ?
	`, toUnixMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune readings rows affected: %w", err)
	}
	return n, nil
}
