package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/checkin/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIP(t *testing.T) {
	cases := map[string]string{
		"::ffff:1.2.3.4": "1.2.3.4",
		"::FFFF:1.2.3.4": "1.2.3.4",
		"1.2.3.4":        "1.2.3.4",
		" 1.2.3.4 ":      "1.2.3.4",
		"2001:db8::1":    "2001:db8::1",
		"::ffff:zzz":     "::ffff:zzz",
	}
	for in, want := range cases {
		require.Equal(t, want, httpx.NormalizeIP(in), in)
	}
}

func TestClientIP(t *testing.T) {
	newReq := func(remote string, headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	t.Run("uses the remote address host", func(t *testing.T) {
		require.Equal(t, "192.168.1.1", httpx.ClientIP(newReq("192.168.1.1:12345", nil), false))
	})

	t.Run("strips mapped prefix from remote address", func(t *testing.T) {
		require.Equal(t, "10.0.0.7", httpx.ClientIP(newReq("[::ffff:10.0.0.7]:443", nil), false))
	})

	t.Run("ignores forwarded headers by default", func(t *testing.T) {
		req := newReq("192.168.1.1:12345", map[string]string{"X-Forwarded-For": "203.0.113.1"})
		require.Equal(t, "192.168.1.1", httpx.ClientIP(req, false))
	})

	t.Run("trusts X-Forwarded-For when enabled", func(t *testing.T) {
		req := newReq("192.168.1.1:12345", map[string]string{"X-Forwarded-For": "::ffff:203.0.113.1, 192.168.1.1"})
		require.Equal(t, "203.0.113.1", httpx.ClientIP(req, true))
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		req := newReq("192.168.1.1:12345", map[string]string{"X-Real-IP": "203.0.113.2"})
		require.Equal(t, "203.0.113.2", httpx.ClientIP(req, true))
	})
}
