package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	checkinhttp "github.com/aussiebroadwan/checkin/internal/checkin/http"
	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/pkg/checkinsdk"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newKeyServer(t *testing.T) (*httptest.Server, *service.KeyRotator) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	keys, err := service.NewKeyRotator(service.RandomSource{}, time.Minute, time.Minute, logger)
	require.NoError(t, err)

	router := checkinhttp.NewKeyRouter("test", keys, logger)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, keys
}

func TestDynamicKey(t *testing.T) {
	srv, keys := newKeyServer(t)

	got, err := checkinsdk.NewClient(srv.URL).DynamicKey(context.Background())
	require.NoError(t, err)

	current := keys.Current()
	require.Equal(t, current.Value, got.Key)
	require.True(t, current.IssuedAt.Equal(got.GenerateTime))
	require.Equal(t, time.Minute, got.ExpireTime.Sub(got.GenerateTime))
}

func TestKeyFeed(t *testing.T) {
	srv, keys := newKeyServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/dynamic-key/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first checkinsdk.DynamicKey
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, keys.Current().Value, first.Key)

	// The subscription is registered before the first message is sent.
	rotated, err := keys.Rotate()
	require.NoError(t, err)

	var next checkinsdk.DynamicKey
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, rotated.Value, next.Key)
	require.True(t, rotated.IssuedAt.Equal(next.GenerateTime))
}
