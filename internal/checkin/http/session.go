package http

import (
	"net/http"

	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/pkg/checkinsdk"
	"github.com/aussiebroadwan/checkin/pkg/httpx"
)

type LoginHandler struct {
	Sessions   *service.SessionAuthorizer
	TrustProxy bool
}

// ServeHTTP handles student login
//
//	@Summary		Log in with the rotating key
//	@Description	Validates the live 4-digit key and binds the student to the calling device on first login.
//	@Description	A device serves one student at a time and a bound student may only log in from its device.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		checkinsdk.LoginRequest		true	"Student and key"
//	@Success		200		{object}	checkinsdk.LoginResponse	"Logged in"
//	@Failure		400		{object}	checkinsdk.MessageResponse	"Missing or malformed fields"
//	@Failure		403		{object}	checkinsdk.MessageResponse	"Key invalid or expired"
//	@Failure		409		{object}	checkinsdk.MessageResponse	"Device or student already bound elsewhere"
//	@Failure		429		{object}	checkinsdk.MessageResponse	"Too many attempts"
//	@Failure		503		{object}	checkinsdk.MessageResponse	"Storage unavailable"
//	@Router			/api/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req checkinsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformed(w)
		return
	}

	device := httpx.ClientIP(r, h.TrustProxy)

	res, err := h.Sessions.Login(r.Context(), service.LoginRequest{
		Identity: req.StudentID,
		Key:      req.InputKey,
		Device:   device,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := "login successful"
	if res.Bound {
		msg = "login successful, device bound"
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.LoginResponse{
		Success:        true,
		Msg:            msg,
		StudentID:      res.Identity,
		ClientIP:       device,
		OngoingCheckin: res.OngoingCheckin,
	})
}

type LogoutHandler struct {
	Sessions   *service.SessionAuthorizer
	TrustProxy bool
}

// ServeHTTP handles student logout
//
//	@Summary		Log out and release the device
//	@Description	Removes the student's device binding. Requires the live key and must come from the bound device.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		checkinsdk.LogoutRequest	true	"Student and key"
//	@Success		200		{object}	checkinsdk.MessageResponse	"Logged out"
//	@Failure		400		{object}	checkinsdk.MessageResponse	"Missing or malformed fields"
//	@Failure		403		{object}	checkinsdk.MessageResponse	"Key invalid or not the bound device"
//	@Failure		404		{object}	checkinsdk.MessageResponse	"No binding"
//	@Failure		429		{object}	checkinsdk.MessageResponse	"Too many attempts"
//	@Failure		503		{object}	checkinsdk.MessageResponse	"Storage unavailable"
//	@Router			/api/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req checkinsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformed(w)
		return
	}

	err := h.Sessions.Logout(r.Context(), service.LogoutRequest{
		Identity: req.StudentID,
		Key:      req.InputKey,
		Device:   httpx.ClientIP(r, h.TrustProxy),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, checkinsdk.MessageResponse{
		Success: true,
		Msg:     "logout successful, device released",
	})
}
