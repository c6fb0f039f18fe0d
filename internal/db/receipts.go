package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/autopilot-america/evidence.report/internal/receipt"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// PutReceipt upserts one receipt for the given client identity. The full
// receipt round-trips through a JSON payload column so retrieval is
// field-for-field identical to what was stored.
func (db *DB) PutReceipt(ctx context.Context, identity string, r receipt.Receipt) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode receipt %s: %w", r.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT OR REPLACE INTO receipts (
			id, identity, device_timestamp_ms, intersection_id,
			camera_lat, camera_lng, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, identity, r.DeviceTimestampMs, r.IntersectionID,
		r.CameraLatitude, r.CameraLongitude, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to store receipt %s: %w", r.ID, err)
	}
	return nil
}

// ListReceipts returns up to limit receipts for identity, newest first.
func (db *DB) ListReceipts(ctx context.Context, identity string, limit int) ([]receipt.Receipt, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT payload FROM receipts
		WHERE identity = ?
		ORDER BY device_timestamp_ms DESC
		LIMIT ?`,
		identity, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// ListReceiptsWindow returns up to limit receipts for identity whose device
// timestamp falls within [fromMs, toMs], newest first.
func (db *DB) ListReceiptsWindow(ctx context.Context, identity string, fromMs, toMs int64, limit int) ([]receipt.Receipt, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT payload FROM receipts
		WHERE identity = ? AND device_timestamp_ms BETWEEN ? AND ?
		ORDER BY device_timestamp_ms DESC
		LIMIT ?`,
		identity, fromMs, toMs, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt window: %w", err)
	}
	defer rows.Close()

	return scanReceipts(rows)
}

// GetReceipt retrieves one receipt by id for identity. Returns ErrNotFound
// when no such receipt exists.
func (db *DB) GetReceipt(ctx context.Context, identity, id string) (*receipt.Receipt, error) {
	var payload string
	err := db.QueryRowContext(ctx, `
		SELECT payload FROM receipts WHERE identity = ? AND id = ?`,
		identity, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", id, err)
	}

	var r receipt.Receipt
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("failed to decode receipt %s: %w", id, err)
	}
	return &r, nil
}

func scanReceipts(rows *sql.Rows) ([]receipt.Receipt, error) {
	var receipts []receipt.Receipt
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan receipt row: %w", err)
		}
		var r receipt.Receipt
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("failed to decode receipt payload: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return receipts, nil
}
