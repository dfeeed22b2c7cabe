package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/pkg/httpx"
	"github.com/aussiebroadwan/checkin/pkg/slogx"
)

const msgMalformedBody = "request body must be valid JSON"

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a failure envelope. Storage and unexpected errors
// are logged with their cause; the caller only sees the safe message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var se *service.Error
	if !errors.As(err, &se) {
		log.Error("unexpected error", "error", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, service.MsgTryAgain)
		return
	}

	if se.Kind == service.KindStorage {
		log.Error("storage failure", "error", se.Err)
	} else {
		log.Debug("request refused", "kind", se.Kind.String(), "msg", se.Msg)
	}
	httpx.WriteFailure(w, statusFor(se.Kind), se.Msg)
}

func writeMalformed(w http.ResponseWriter) {
	httpx.WriteFailure(w, http.StatusBadRequest, msgMalformedBody)
}
