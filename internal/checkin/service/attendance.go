package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/store"
)

// Status is the current attendance state of one identity.
type Status struct {
	Ongoing     bool
	CheckInTime *time.Time
}

// AttendanceTracker records check-ins and check-outs. Only the device bound
// to an identity may act for it.
type AttendanceTracker struct {
	Store    store.Store
	Bindings *BindingStore
	Location *time.Location // date buckets; defaults to UTC
	Logger   *slog.Logger
	Metrics  *Metrics
	Now      func() time.Time
}

func (t *AttendanceTracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *AttendanceTracker) location() *time.Location {
	if t.Location != nil {
		return t.Location
	}
	return time.UTC
}

func (t *AttendanceTracker) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *AttendanceTracker) authorize(identity, device string) error {
	if identity == "" {
		return validationError(MsgMissingIdentity)
	}
	if bound, ok := t.Bindings.DeviceBoundTo(identity); !ok || bound != device {
		return authorizationError(MsgLoginFirst)
	}
	return nil
}

// CheckIn opens a new attendance session for identity. Any previous record,
// open or closed, is replaced.
func (t *AttendanceTracker) CheckIn(ctx context.Context, identity, device string) (rec domain.AttendanceRecord, err error) {
	defer func() { t.Metrics.attendance("checkin", err) }()

	identity = strings.TrimSpace(identity)
	if err := t.authorize(identity, device); err != nil {
		return domain.AttendanceRecord{}, err
	}

	now := t.now().UTC()
	rec = domain.AttendanceRecord{
		Identity:    identity,
		CheckInTime: now,
		DateBucket:  domain.DateBucket(now, t.location()),
	}

	if err := t.Store.Attendance().ReplaceRecord(ctx, rec); err != nil {
		return domain.AttendanceRecord{}, storageError(MsgTryAgain, err)
	}

	t.logger().Info("checked in", "identity", identity, "date", rec.DateBucket)
	return rec, nil
}

// CheckOut closes identity's record and stores the elapsed time.
func (t *AttendanceTracker) CheckOut(ctx context.Context, identity, device string) (rec domain.AttendanceRecord, err error) {
	defer func() { t.Metrics.attendance("checkout", err) }()

	identity = strings.TrimSpace(identity)
	if err := t.authorize(identity, device); err != nil {
		return domain.AttendanceRecord{}, err
	}

	now := t.now().UTC()

	err = t.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Attendance().GetRecord(ctx, identity)
		if err != nil {
			return err
		}

		duration := domain.FormatDuration(now.Sub(current.CheckInTime))
		if err := tx.Attendance().CloseRecord(ctx, identity, now, duration); err != nil {
			return err
		}

		current.CheckOutTime = &now
		current.Duration = &duration
		rec = current
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.AttendanceRecord{}, notFoundError(MsgNoCheckIn)
	case err != nil:
		return domain.AttendanceRecord{}, storageError(MsgTryAgain, err)
	}

	t.logger().Info("checked out", "identity", identity, "duration", *rec.Duration)
	return rec, nil
}

// Status reports whether identity has an open session.
func (t *AttendanceTracker) Status(ctx context.Context, identity string) (Status, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Status{}, validationError(MsgMissingIdentity)
	}

	rec, err := t.Store.Attendance().GetRecord(ctx, identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Status{}, nil
	case err != nil:
		return Status{}, storageError(MsgTryAgain, err)
	}

	checkIn := rec.CheckInTime
	return Status{Ongoing: rec.Open(), CheckInTime: &checkIn}, nil
}

// History returns every record, newest check-in first.
func (t *AttendanceTracker) History(ctx context.Context) ([]domain.AttendanceRecord, error) {
	records, err := t.Store.Attendance().ListRecords(ctx)
	if err != nil {
		return nil, storageError(MsgTryAgain, err)
	}
	return records, nil
}

// WeeklyReport sums the closed session time of each identity whose records
// fall between the calendar dates of weekStart and weekEnd, inclusive.
// Identities with only open sessions are listed with a zero total.
func (t *AttendanceTracker) WeeklyReport(ctx context.Context, weekStart, weekEnd time.Time) ([]domain.WeeklyTotal, error) {
	from := domain.DateBucket(weekStart, t.location())
	to := domain.DateBucket(weekEnd, t.location())
	if to < from {
		return nil, validationError("report end precedes start")
	}

	records, err := t.Store.Attendance().ListRecordsBetween(ctx, from, to)
	if err != nil {
		return nil, storageError(MsgTryAgain, err)
	}

	return SumByIdentity(records), nil
}

// SumByIdentity totals the elapsed time of records per identity, sorted by identity.
func SumByIdentity(records []domain.AttendanceRecord) []domain.WeeklyTotal {
	sums := make(map[string]time.Duration)
	for _, rec := range records {
		sums[rec.Identity] += rec.Elapsed()
	}

	totals := make([]domain.WeeklyTotal, 0, len(sums))
	for identity, d := range sums {
		seconds := int64(d / time.Second)
		totals = append(totals, domain.WeeklyTotal{
			Identity:     identity,
			TotalSeconds: seconds,
			Total:        domain.FormatSeconds(seconds),
		})
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].Identity < totals[j].Identity })
	return totals
}
