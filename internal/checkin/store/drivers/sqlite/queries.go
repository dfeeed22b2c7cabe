package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type queries struct {
	db DBTX
}

func newQueries(db DBTX) *queries { return &queries{db: db} }

type bindingRow struct {
	Identity      string
	DeviceAddress string
	BoundAt       string
}

type attendanceRow struct {
	Identity     string
	CheckInTime  string
	CheckOutTime sql.NullString
	Duration     sql.NullString
	DateBucket   string
}

const getBinding = `SELECT identity, device_address, bound_at FROM bindings WHERE identity = ?`

func (q *queries) GetBinding(ctx context.Context, identity string) (bindingRow, error) {
	var row bindingRow
	err := q.db.QueryRowContext(ctx, getBinding, identity).
		Scan(&row.Identity, &row.DeviceAddress, &row.BoundAt)
	return row, err
}

const getBindingByDevice = `SELECT identity, device_address, bound_at FROM bindings WHERE device_address = ?`

func (q *queries) GetBindingByDevice(ctx context.Context, device string) (bindingRow, error) {
	var row bindingRow
	err := q.db.QueryRowContext(ctx, getBindingByDevice, device).
		Scan(&row.Identity, &row.DeviceAddress, &row.BoundAt)
	return row, err
}

const listBindings = `SELECT identity, device_address, bound_at FROM bindings ORDER BY bound_at`

func (q *queries) ListBindings(ctx context.Context) ([]bindingRow, error) {
	rows, err := q.db.QueryContext(ctx, listBindings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []bindingRow
	for rows.Next() {
		var row bindingRow
		if err := rows.Scan(&row.Identity, &row.DeviceAddress, &row.BoundAt); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

const createBinding = `INSERT INTO bindings (identity, device_address, bound_at) VALUES (?, ?, ?)`

func (q *queries) CreateBinding(ctx context.Context, row bindingRow) error {
	_, err := q.db.ExecContext(ctx, createBinding, row.Identity, row.DeviceAddress, row.BoundAt)
	return err
}

const deleteBinding = `DELETE FROM bindings WHERE identity = ?`

func (q *queries) DeleteBinding(ctx context.Context, identity string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBinding, identity)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRecord = `SELECT identity, check_in_time, check_out_time, duration, date_bucket
FROM attendance WHERE identity = ?`

func (q *queries) GetRecord(ctx context.Context, identity string) (attendanceRow, error) {
	var row attendanceRow
	err := q.db.QueryRowContext(ctx, getRecord, identity).Scan(
		&row.Identity, &row.CheckInTime, &row.CheckOutTime, &row.Duration, &row.DateBucket,
	)
	return row, err
}

const replaceRecord = `INSERT OR REPLACE INTO attendance
    (identity, check_in_time, check_out_time, duration, date_bucket)
VALUES (?, ?, ?, ?, ?)`

func (q *queries) ReplaceRecord(ctx context.Context, row attendanceRow) error {
	_, err := q.db.ExecContext(ctx, replaceRecord,
		row.Identity, row.CheckInTime, row.CheckOutTime, row.Duration, row.DateBucket,
	)
	return err
}

const closeRecord = `UPDATE attendance SET check_out_time = ?, duration = ? WHERE identity = ?`

func (q *queries) CloseRecord(ctx context.Context, identity, checkOut, duration string) (int64, error) {
	res, err := q.db.ExecContext(ctx, closeRecord, checkOut, duration, identity)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecords = `SELECT identity, check_in_time, check_out_time, duration, date_bucket
FROM attendance ORDER BY check_in_time DESC`

func (q *queries) ListRecords(ctx context.Context) ([]attendanceRow, error) {
	return q.listAttendance(ctx, listRecords)
}

const listRecordsBetween = `SELECT identity, check_in_time, check_out_time, duration, date_bucket
FROM attendance WHERE date_bucket BETWEEN ? AND ? ORDER BY identity, check_in_time`

func (q *queries) ListRecordsBetween(ctx context.Context, from, to string) ([]attendanceRow, error) {
	return q.listAttendance(ctx, listRecordsBetween, from, to)
}

func (q *queries) listAttendance(ctx context.Context, query string, args ...any) ([]attendanceRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []attendanceRow
	for rows.Next() {
		var row attendanceRow
		if err := rows.Scan(
			&row.Identity, &row.CheckInTime, &row.CheckOutTime, &row.Duration, &row.DateBucket,
		); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}
