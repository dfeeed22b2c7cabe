package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/aussiebroadwan/checkin/pkg/checkinsdk"
	"github.com/aussiebroadwan/checkin/pkg/httpx"
	"github.com/aussiebroadwan/checkin/pkg/slogx"
	"github.com/gorilla/websocket"
)

// KeyFeed exposes the live rotating key and its updates.
type KeyFeed interface {
	Current() domain.RotatingKey
	Subscribe() (<-chan domain.RotatingKey, func())
}

func toDynamicKey(k domain.RotatingKey) checkinsdk.DynamicKey {
	return checkinsdk.DynamicKey{
		Key:          k.Value,
		GenerateTime: k.IssuedAt,
		ExpireTime:   k.ExpiresAt(),
	}
}

// DynamicKeyHandler godoc
//
//	@Summary		Current rotating key
//	@Description	Returns the live 4-digit key with its issue and expiry times, for the key display.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{object}	checkinsdk.DynamicKey	"Live key"
//	@Router			/api/dynamic-key [get].
func DynamicKeyHandler(keys KeyFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, toDynamicKey(keys.Current()))
	}
}

const keyFeedWriteTimeout = 10 * time.Second

// KeyFeedHandler streams every new key over a websocket, starting with the
// live one.
type KeyFeedHandler struct {
	Keys         KeyFeed
	PingInterval time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The key display may be served from any origin, as with CORS.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the connection and pushes keys
//
//	@Summary		Live key feed
//	@Description	Websocket stream of checkinsdk.DynamicKey messages, one per rotation plus the live key on connect.
//	@Tags			Keys
//	@Success		101	"Switching protocols"
//	@Router			/api/dynamic-key/ws [get].
func (h *KeyFeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("key feed upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	feed, cancel := h.Keys.Subscribe()
	defer cancel()

	// Reads only serve to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(keyFeedWriteTimeout))
		return conn.WriteJSON(msg)
	}

	if err := send(toDynamicKey(h.Keys.Current())); err != nil {
		return
	}

	interval := h.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	for {
		select {
		case key := <-feed:
			if err := send(toDynamicKey(key)); err != nil {
				log.Debug("key feed write failed", "error", err)
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(keyFeedWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
