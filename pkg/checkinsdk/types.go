package checkinsdk

import "time"

// LoginRequest binds StudentID to the calling device.
type LoginRequest struct {
	StudentID string `json:"studentId" example:"S1"`
	InputKey  string `json:"inputKey" example:"0007"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	Msg       string `json:"msg"`
	StudentID string `json:"studentId"`
	ClientIP  string `json:"clientIp"`
	// OngoingCheckin is set when the student has an open check-in.
	OngoingCheckin *time.Time `json:"ongoingCheckin"`
}

type LogoutRequest struct {
	StudentID string `json:"studentId" example:"S1"`
	InputKey  string `json:"inputKey" example:"0007"`
}

// MessageResponse is returned by operations with no payload, and by every
// refused request.
type MessageResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
}

// AttendanceRequest names the student checking in or out.
type AttendanceRequest struct {
	ID string `json:"id" example:"S1"`
}

type CheckInResponse struct {
	Success     bool      `json:"success"`
	CheckInTime time.Time `json:"checkInTime"`
}

type CheckOutResponse struct {
	Success      bool      `json:"success"`
	CheckInTime  time.Time `json:"checkInTime"`
	CheckOutTime time.Time `json:"checkOutTime"`
	Duration     string    `json:"duration" example:"01:15:00"`
}

type StatusResponse struct {
	Success     bool       `json:"success"`
	Ongoing     bool       `json:"ongoing"`
	CheckInTime *time.Time `json:"checkInTime"`
}

// Record is one attendance row.
type Record struct {
	ID           string     `json:"id"`
	CheckInTime  time.Time  `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
	Duration     *string    `json:"duration"`
	CreateDate   string     `json:"createDate" example:"2026-03-04"`
}

type HistoryResponse struct {
	Success bool     `json:"success"`
	Records []Record `json:"records"`
}

type WeeklyTotal struct {
	ID           string `json:"id"`
	Total        string `json:"total" example:"01:30:00"`
	TotalSeconds int64  `json:"totalSeconds"`
}

type WeeklyReportResponse struct {
	Success   bool          `json:"success"`
	WeekStart string        `json:"weekStart" example:"2026-03-02"`
	WeekEnd   string        `json:"weekEnd" example:"2026-03-08"`
	Totals    []WeeklyTotal `json:"totals"`
}

// DynamicKey is the live rotating key as shown on the key display.
type DynamicKey struct {
	Key          string    `json:"key" example:"0427"`
	GenerateTime time.Time `json:"generateTime"`
	ExpireTime   time.Time `json:"expireTime"`
}

type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each readiness dependency as "ok" or an error.
type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}
