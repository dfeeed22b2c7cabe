package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
)

// KeyValidator checks a candidate rotating key.
type KeyValidator interface {
	IsValid(candidate string) bool
}

type LoginRequest struct {
	Identity string
	Key      string
	Device   string
}

type LoginResult struct {
	Identity string
	Device   string
	// Bound is true when this login created the binding.
	Bound bool
	// OngoingCheckin is the check-in time of an open attendance record, so
	// clients can resume their timer.
	OngoingCheckin *time.Time
}

type LogoutRequest struct {
	Identity string
	Key      string
	Device   string
}

// SessionAuthorizer decides login and logout requests. Both require the live
// rotating key; login binds an unbound identity to the calling device and
// logout releases the binding from the bound device only.
type SessionAuthorizer struct {
	Keys       KeyValidator
	Bindings   *BindingStore
	Attendance *AttendanceTracker
	Logger     *slog.Logger
	Metrics    *Metrics
}

func (s *SessionAuthorizer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Login authorizes identity on the calling device.
func (s *SessionAuthorizer) Login(ctx context.Context, req LoginRequest) (res LoginResult, err error) {
	defer func() { s.Metrics.session("login", err) }()

	identity := strings.TrimSpace(req.Identity)
	key := strings.TrimSpace(req.Key)

	if identity == "" || key == "" {
		return LoginResult{}, validationError(MsgMissingLoginFields)
	}
	if !domain.IsWellFormed(key) {
		return LoginResult{}, validationError(MsgMalformedKey)
	}
	if !s.Keys.IsValid(key) {
		return LoginResult{}, authorizationError(MsgKeyInvalid)
	}

	// Device side first: one device may not serve several identities.
	if holder, ok := s.Bindings.IdentityBoundTo(req.Device); ok && holder != identity {
		return LoginResult{}, conflictError(DeviceClaimedMsg(holder))
	}

	existing, found, err := s.Bindings.Lookup(ctx, identity)
	if err != nil {
		return LoginResult{}, err
	}

	res = LoginResult{Identity: identity, Device: req.Device}

	if found {
		if existing.DeviceAddress != req.Device {
			return LoginResult{}, conflictError(MsgIdentityElsewhere)
		}
		// Same pair: Bind is a no-op that brings the memory index back in
		// line with the durable row.
		if _, err := s.Bindings.Bind(ctx, identity, req.Device); err != nil {
			return LoginResult{}, err
		}
		res.OngoingCheckin = s.ongoingCheckin(ctx, identity)
		return res, nil
	}

	if _, err := s.Bindings.Bind(ctx, identity, req.Device); err != nil {
		return LoginResult{}, err
	}
	res.Bound = true
	return res, nil
}

// ongoingCheckin returns the check-in time of identity's open record, or nil.
// Lookup failures are logged.
func (s *SessionAuthorizer) ongoingCheckin(ctx context.Context, identity string) *time.Time {
	if s.Attendance == nil {
		return nil
	}
	status, err := s.Attendance.Status(ctx, identity)
	if err != nil {
		s.logger().Warn("ongoing check-in lookup failed", "identity", identity, "error", err)
		return nil
	}
	if !status.Ongoing {
		return nil
	}
	return status.CheckInTime
}

// Logout releases identity's binding. The caller must present the live key
// from the bound device.
func (s *SessionAuthorizer) Logout(ctx context.Context, req LogoutRequest) (err error) {
	defer func() { s.Metrics.session("logout", err) }()

	identity := strings.TrimSpace(req.Identity)
	key := strings.TrimSpace(req.Key)

	if identity == "" || key == "" {
		return validationError(MsgMissingLogoutFields)
	}
	if !domain.IsWellFormed(key) {
		return validationError(MsgMalformedKey)
	}
	if !s.Keys.IsValid(key) {
		return authorizationError(MsgKeyInvalid)
	}

	if device, ok := s.Bindings.DeviceBoundTo(identity); !ok || device != req.Device {
		return authorizationError(MsgNotOnBoundDevice)
	}

	// The durable row is re-checked under the binding lock as well.
	return s.Bindings.UnbindFrom(ctx, identity, req.Device)
}
