package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"spreadscope/internal/domain/model"
)

// Inbound frames are only used as a liveness signal.
const maxInboundBytes = 512

// wsClient is a hub subscriber backed by one websocket connection.
// Writes from the hub and from the idle pinger share mu.
type wsClient struct {
	id        string
	conn      *websocket.Conn
	writeWait time.Duration
	mu        sync.Mutex
}

func newWSClient(conn *websocket.Conn, writeWait time.Duration) *wsClient {
	return &wsClient{id: uuid.NewString(), conn: conn, writeWait: writeWait}
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsClient) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeWait))
	_ = c.conn.Close()
}

// wsHandler streams one exchange: a snapshot first, then every tick and
// meta_batch. Inbound text is ignored but resets the idle timer; after
// PingIdle without inbound traffic a {"type":"ping"} message is sent.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	ex := r.URL.Query().Get("exchange")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := newWSClient(conn, s.p.WriteTimeout)
	logger := s.logger.With().Str("exchange", ex).Str("client", client.ID()).Logger()

	if _, ok := s.exchanges[ex]; !ok {
		logger.Debug().Msg("unknown exchange, closing")
		client.closeWith(websocket.ClosePolicyViolation, "unknown exchange")
		return
	}

	ctx := r.Context()
	err = s.hub.SubscribeWithSnapshot(ctx, ex, client, func() model.Message {
		return model.SnapshotMessage(s.store.SnapshotExchange(ex))
	})
	if err != nil {
		logger.Debug().Err(err).Msg("snapshot send failed")
		_ = conn.Close()
		return
	}
	defer func() {
		s.hub.Unsubscribe(ex, client)
		_ = conn.Close()
		logger.Debug().Msg("websocket closed")
	}()
	logger.Debug().Msg("websocket subscribed")

	conn.SetReadLimit(maxInboundBytes)
	inbound := make(chan struct{}, 1)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			select {
			case inbound <- struct{}{}:
			default:
			}
		}
	}()

	ping, _ := json.Marshal(model.PingMessage())
	idle := time.NewTimer(s.p.PingIdle)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case <-inbound:
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.p.PingIdle)
		case <-idle.C:
			if err := client.Send(ctx, ping); err != nil {
				return
			}
			idle.Reset(s.p.PingIdle)
		}
	}
}
