package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/report"
)

// The weekly report is produced at this weekday and hour.
const (
	ReportWeekday = time.Sunday
	ReportHour    = 23
)

// ReportService writes the weekly attendance report to a sink every Sunday
// at 23:00 in Location.
type ReportService struct {
	Tracker  *AttendanceTracker
	Sink     report.Sink
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *Metrics
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewReportService creates a report service. A nil location means UTC.
func NewReportService(tracker *AttendanceTracker, sink report.Sink, loc *time.Location, logger *slog.Logger) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportService{
		Tracker:  tracker,
		Sink:     sink,
		Location: loc,
		Logger:   logger,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// WeekBounds returns midnight of the Monday starting t's week and the last
// instant of the following Sunday, both in loc.
func WeekBounds(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7 // days since Monday
	start = time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// NextRun returns the first report time strictly after t.
func NextRun(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	days := (int(ReportWeekday) - int(local.Weekday()) + 7) % 7
	next := time.Date(local.Year(), local.Month(), local.Day()+days, ReportHour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// RunWeek renders the report for the week containing at and writes it to
// the sink. It returns the artifact name.
func (s *ReportService) RunWeek(ctx context.Context, at time.Time) (name string, err error) {
	defer func() { s.Metrics.report(err) }()

	start, end := WeekBounds(at, s.Location)
	totals, err := s.Tracker.WeeklyReport(ctx, start, end)
	if err != nil {
		return "", err
	}

	content, err := report.Render(totals)
	if err != nil {
		return "", err
	}

	name = report.FileName(start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	if err := s.Sink.Write(ctx, name, content); err != nil {
		return "", err
	}

	s.Logger.Info("weekly report written", "name", name, "identities", len(totals))
	return name, nil
}

// Start begins the scheduler goroutine. Call Stop to shut it down.
func (s *ReportService) Start() {
	go s.run()
	s.Logger.Info("report service started", "next_run", NextRun(s.Now(), s.Location))
}

// Stop shuts down the scheduler, waiting for any in-progress run.
func (s *ReportService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("report service stopped")
}

func (s *ReportService) run() {
	defer close(s.doneCh)

	for {
		now := s.Now()
		next := NextRun(now, s.Location)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			if _, err := s.RunWeek(context.Background(), next); err != nil {
				s.Logger.Error("weekly report failed", "error", err)
			}
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}
