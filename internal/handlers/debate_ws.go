// internal/handlers/debate_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/argumentor/internal/middleware"
	"github.com/jason-s-yu/argumentor/internal/room"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "debate"

const (
	outQueueSize = 32
	writeTimeout = 5 * time.Second
	maxNameRunes = 50
)

// connection is one client's outbound queue. Send never blocks; a client that
// lets its queue fill up is disconnected.
type connection struct {
	out      chan room.Event
	cancel   context.CancelFunc
	overflow sync.Once
	logger   *logrus.Entry
}

func (c *connection) Send(e room.Event) {
	select {
	case c.out <- e:
	default:
		c.overflow.Do(func() {
			c.logger.WithField("event", e.Type).Warn("outbound queue full; dropping connection")
			c.cancel()
		})
	}
}

// DebateWSHandler upgrades the request and feeds the client's commands to the
// coordinator. The optional ?name= query parameter is the display name.
func DebateWSHandler(logger *logrus.Logger, coord *room.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the debate subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &connection{
			out:    make(chan room.Event, outQueueSize),
			cancel: cancel,
		}
		p := room.NewParticipant(displayName(r.URL.Query().Get("name")), conn)
		conn.logger = logger.WithField("participant", p.ID)

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, p.ID)

		go writePump(ctx, c, conn)
		err = readPump(ctx, c, coord, p, conn.logger)

		coord.Disconnect(p)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, p.ID, err)

		if ctx.Err() != nil && r.Context().Err() == nil {
			c.Close(SlowConsumerError, "client is not reading")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump decodes commands until the connection closes. Normal closure returns nil.
func readPump(ctx context.Context, c *websocket.Conn, coord *room.Coordinator, p *room.Participant, logger *logrus.Entry) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		cmd, err := room.ParseCommand(msg)
		if err != nil {
			logger.WithError(err).Debug("invalid command")
			p.Send(room.ErrorEvent(err))
			continue
		}
		_ = coord.Dispatch(ctx, p, cmd)
	}
}

// writePump serializes queued events onto the socket until ctx is done.
func writePump(ctx context.Context, c *websocket.Conn, conn *connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.out:
			data, err := json.Marshal(ev)
			if err != nil {
				conn.logger.WithError(err).WithField("event", ev.Type).Error("failed to encode event")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				conn.logger.WithError(err).Debug("write failed; closing connection")
				conn.cancel()
				return
			}
		}
	}
}

func displayName(raw string) string {
	name := strings.TrimSpace(raw)
	if r := []rune(name); len(r) > maxNameRunes {
		name = string(r[:maxNameRunes])
	}
	return name
}
