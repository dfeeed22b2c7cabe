package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/pkg/checkinsdk"
	"github.com/aussiebroadwan/checkin/pkg/httpx"
)

type AttendanceHandler struct {
	Attendance *service.AttendanceTracker
	Location   *time.Location
	TrustProxy bool
	Now        func() time.Time
}

func (h *AttendanceHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AttendanceHandler) location() *time.Location {
	if h.Location != nil {
		return h.Location
	}
	return time.UTC
}

// HandleCheckIn opens an attendance session
//
//	@Summary		Check in
//	@Description	Opens a new session for the student, replacing any previous record. Must come from the bound device.
//	@Tags			Attendance
//	@Accept			json
//	@Produce		json
//	@Param			body	body		checkinsdk.AttendanceRequest	true	"Student"
//	@Success		200		{object}	checkinsdk.CheckInResponse		"Checked in"
//	@Failure		400		{object}	checkinsdk.MessageResponse		"Missing student"
//	@Failure		403		{object}	checkinsdk.MessageResponse		"Not logged in from the bound device"
//	@Failure		503		{object}	checkinsdk.MessageResponse		"Storage unavailable"
//	@Router			/api/checkin [post].
func (h *AttendanceHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkinsdk.AttendanceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformed(w)
		return
	}

	rec, err := h.Attendance.CheckIn(r.Context(), req.ID, httpx.ClientIP(r, h.TrustProxy))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.CheckInResponse{
		Success:     true,
		CheckInTime: rec.CheckInTime,
	})
}

// HandleCheckOut closes an attendance session
//
//	@Summary		Check out
//	@Description	Closes the student's record and returns the elapsed time as HH:MM:SS. Must come from the bound device.
//	@Tags			Attendance
//	@Accept			json
//	@Produce		json
//	@Param			body	body		checkinsdk.AttendanceRequest	true	"Student"
//	@Success		200		{object}	checkinsdk.CheckOutResponse		"Checked out"
//	@Failure		400		{object}	checkinsdk.MessageResponse		"Missing student"
//	@Failure		403		{object}	checkinsdk.MessageResponse		"Not logged in from the bound device"
//	@Failure		404		{object}	checkinsdk.MessageResponse		"No check-in record"
//	@Failure		503		{object}	checkinsdk.MessageResponse		"Storage unavailable"
//	@Router			/api/checkout [post].
func (h *AttendanceHandler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	var req checkinsdk.AttendanceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformed(w)
		return
	}

	rec, err := h.Attendance.CheckOut(r.Context(), req.ID, httpx.ClientIP(r, h.TrustProxy))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.CheckOutResponse{
		Success:      true,
		CheckInTime:  rec.CheckInTime,
		CheckOutTime: *rec.CheckOutTime,
		Duration:     *rec.Duration,
	})
}

// HandleStatus reports whether a session is open
//
//	@Summary		Attendance status
//	@Description	Reports whether the student has an open session and when it started.
//	@Tags			Attendance
//	@Produce		json
//	@Param			studentId	path		string						true	"Student"
//	@Success		200			{object}	checkinsdk.StatusResponse	"Status"
//	@Failure		503			{object}	checkinsdk.MessageResponse	"Storage unavailable"
//	@Router			/api/status/{studentId} [get].
func (h *AttendanceHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Attendance.Status(r.Context(), r.PathValue("studentId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.StatusResponse{
		Success:     true,
		Ongoing:     status.Ongoing,
		CheckInTime: status.CheckInTime,
	})
}

// HandleHistory lists every attendance record
//
//	@Summary		Attendance history
//	@Description	Lists every attendance record, newest check-in first.
//	@Tags			Attendance
//	@Produce		json
//	@Success		200	{object}	checkinsdk.HistoryResponse	"Records"
//	@Failure		503	{object}	checkinsdk.MessageResponse	"Storage unavailable"
//	@Router			/api/history [get].
func (h *AttendanceHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.Attendance.History(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]checkinsdk.Record, len(records))
	for i, rec := range records {
		out[i] = checkinsdk.Record{
			ID:           rec.Identity,
			CheckInTime:  rec.CheckInTime,
			CheckOutTime: rec.CheckOutTime,
			Duration:     rec.Duration,
			CreateDate:   rec.DateBucket,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.HistoryResponse{Success: true, Records: out})
}

// HandleWeeklyReport totals attendance per student
//
//	@Summary		Weekly totals
//	@Description	Sums closed session time per student between two dates, inclusive. Without a start the current
//	@Description	Monday to Sunday week is used; without an end the range covers seven days from start.
//	@Tags			Reports
//	@Produce		json
//	@Param			start	query		string							false	"First day, YYYY-MM-DD"
//	@Param			end		query		string							false	"Last day, YYYY-MM-DD"
//	@Success		200		{object}	checkinsdk.WeeklyReportResponse	"Totals"
//	@Failure		400		{object}	checkinsdk.MessageResponse		"Invalid dates"
//	@Failure		503		{object}	checkinsdk.MessageResponse		"Storage unavailable"
//	@Router			/api/reports/weekly [get].
func (h *AttendanceHandler) HandleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	loc := h.location()
	start, end := service.WeekBounds(h.now(), loc)

	q := r.URL.Query()
	if s := q.Get("start"); s != "" {
		t, err := time.ParseInLocation(domain.DateLayout, s, loc)
		if err != nil {
			httpx.WriteFailure(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start, end = t, t.AddDate(0, 0, 6)
	}
	if e := q.Get("end"); e != "" {
		t, err := time.ParseInLocation(domain.DateLayout, e, loc)
		if err != nil {
			httpx.WriteFailure(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		end = t
	}

	totals, err := h.Attendance.WeeklyReport(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]checkinsdk.WeeklyTotal, len(totals))
	for i, total := range totals {
		out[i] = checkinsdk.WeeklyTotal{
			ID:           total.Identity,
			Total:        total.Total,
			TotalSeconds: total.TotalSeconds,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.WeeklyReportResponse{
		Success:   true,
		WeekStart: start.Format(domain.DateLayout),
		WeekEnd:   end.Format(domain.DateLayout),
		Totals:    out,
	})
}
