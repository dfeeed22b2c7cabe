package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
)

type attendanceRepo struct {
	q *queries
}

func (r *attendanceRepo) GetRecord(ctx context.Context, identity string) (domain.AttendanceRecord, error) {
	row, err := r.q.GetRecord(ctx, identity)
	if err != nil {
		return domain.AttendanceRecord{}, mapNotFound(err)
	}
	return mapRecord(row)
}

func (r *attendanceRepo) ReplaceRecord(ctx context.Context, rec domain.AttendanceRecord) error {
	return r.q.ReplaceRecord(ctx, attendanceRow{
		Identity:     rec.Identity,
		CheckInTime:  formatTime(rec.CheckInTime),
		CheckOutTime: mapOptionalTime(rec.CheckOutTime),
		Duration:     mapOptionalString(rec.Duration),
		DateBucket:   rec.DateBucket,
	})
}

func (r *attendanceRepo) CloseRecord(ctx context.Context, identity string, checkOut time.Time, duration string) error {
	n, err := r.q.CloseRecord(ctx, identity, formatTime(checkOut), duration)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *attendanceRepo) ListRecords(ctx context.Context) ([]domain.AttendanceRecord, error) {
	rows, err := r.q.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return mapRecords(rows)
}

func (r *attendanceRepo) ListRecordsBetween(ctx context.Context, from, to string) ([]domain.AttendanceRecord, error) {
	rows, err := r.q.ListRecordsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return mapRecords(rows)
}

func mapRecords(rows []attendanceRow) ([]domain.AttendanceRecord, error) {
	out := make([]domain.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := mapRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
