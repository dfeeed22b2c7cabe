package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
	"github.com/aussiebroadwan/checkin/internal/checkin/store/drivers/postgres/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// uniqueViolation is the SQLSTATE postgres reports for a unique constraint.
const uniqueViolation = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

// NewStore opens a postgres database through the pgx stdlib driver.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an already opened database handle.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// ApplyMigrations runs the embedded goose migrations.
func (s *Store) ApplyMigrations() error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(context.Background(), s.db, ".")
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Bindings() store.Bindings     { return &bindingsRepo{db: s.db} }
func (s *Store) Attendance() store.Attendance { return &attendanceRepo{db: s.db} }

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error                  { return t.tx.Commit() }
func (t *txStore) Rollback() error                { return t.tx.Rollback() }
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Bindings() store.Bindings     { return &bindingsRepo{db: t.tx} }
func (t *txStore) Attendance() store.Attendance { return &attendanceRepo{db: t.tx} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrAlreadyExists
	}
	return err
}

type bindingsRepo struct {
	db DBTX
}

const selectBinding = `SELECT identity, device_address, bound_at FROM bindings`

func scanBinding(row interface{ Scan(...any) error }) (domain.Binding, error) {
	var b domain.Binding
	if err := row.Scan(&b.Identity, &b.DeviceAddress, &b.BoundAt); err != nil {
		return domain.Binding{}, err
	}
	b.BoundAt = b.BoundAt.UTC()
	return b, nil
}

func (r *bindingsRepo) GetBinding(ctx context.Context, identity string) (domain.Binding, error) {
	b, err := scanBinding(r.db.QueryRowContext(ctx, selectBinding+` WHERE identity = $1`, identity))
	return b, mapNotFound(err)
}

func (r *bindingsRepo) GetBindingByDevice(ctx context.Context, device string) (domain.Binding, error) {
	b, err := scanBinding(r.db.QueryRowContext(ctx, selectBinding+` WHERE device_address = $1`, device))
	return b, mapNotFound(err)
}

func (r *bindingsRepo) ListBindings(ctx context.Context) ([]domain.Binding, error) {
	rows, err := r.db.QueryContext(ctx, selectBinding+` ORDER BY bound_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *bindingsRepo) CreateBinding(ctx context.Context, b domain.Binding) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bindings (identity, device_address, bound_at) VALUES ($1, $2, $3)`,
		b.Identity, b.DeviceAddress, b.BoundAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *bindingsRepo) DeleteBinding(ctx context.Context, identity string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bindings WHERE identity = $1`, identity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type attendanceRepo struct {
	db DBTX
}

const selectRecord = `SELECT identity, check_in_time, check_out_time, duration,
    to_char(date_bucket, 'YYYY-MM-DD') FROM attendance`

func scanRecord(row interface{ Scan(...any) error }) (domain.AttendanceRecord, error) {
	var (
		rec      domain.AttendanceRecord
		checkOut sql.NullTime
		duration sql.NullString
	)
	if err := row.Scan(&rec.Identity, &rec.CheckInTime, &checkOut, &duration, &rec.DateBucket); err != nil {
		return domain.AttendanceRecord{}, err
	}
	rec.CheckInTime = rec.CheckInTime.UTC()
	if checkOut.Valid {
		t := checkOut.Time.UTC()
		rec.CheckOutTime = &t
	}
	if duration.Valid {
		d := duration.String
		rec.Duration = &d
	}
	return rec, nil
}

func (r *attendanceRepo) GetRecord(ctx context.Context, identity string) (domain.AttendanceRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectRecord+` WHERE identity = $1`, identity))
	return rec, mapNotFound(err)
}

func (r *attendanceRepo) ReplaceRecord(ctx context.Context, rec domain.AttendanceRecord) error {
	var checkOut sql.NullTime
	if rec.CheckOutTime != nil {
		checkOut = sql.NullTime{Time: rec.CheckOutTime.UTC(), Valid: true}
	}
	var duration sql.NullString
	if rec.Duration != nil {
		duration = sql.NullString{String: *rec.Duration, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (identity, check_in_time, check_out_time, duration, date_bucket)
		VALUES ($1, $2, $3, $4, $5::date)
		ON CONFLICT (identity) DO UPDATE SET
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			duration = EXCLUDED.duration,
			date_bucket = EXCLUDED.date_bucket`,
		rec.Identity, rec.CheckInTime.UTC(), checkOut, duration, rec.DateBucket,
	)
	return err
}

func (r *attendanceRepo) CloseRecord(ctx context.Context, identity string, checkOut time.Time, duration string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE attendance SET check_out_time = $1, duration = $2 WHERE identity = $3`,
		checkOut.UTC(), duration, identity,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *attendanceRepo) ListRecords(ctx context.Context) ([]domain.AttendanceRecord, error) {
	return r.list(ctx, selectRecord+` ORDER BY check_in_time DESC`)
}

func (r *attendanceRepo) ListRecordsBetween(ctx context.Context, from, to string) ([]domain.AttendanceRecord, error) {
	return r.list(ctx,
		selectRecord+` WHERE date_bucket BETWEEN $1::date AND $2::date ORDER BY identity, check_in_time`,
		from, to,
	)
}

func (r *attendanceRepo) list(ctx context.Context, query string, args ...any) ([]domain.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
