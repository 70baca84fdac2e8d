package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// ErrFatalClose - Gateway закрыл соединение кодом, после которого
// переподключаться бессмысленно (плохой токен, интенты и т.п.).
var ErrFatalClose = errors.New("gateway closed the connection permanently")

func (g *Gateway) readLoop(ctx context.Context) {
	defer func() {
		g.closed.Store(true)
		g.closeConn()
		if g.OnDisconnected != nil {
			g.OnDisconnected()
		}
		g.cancel()
		close(g.done)
	}()

	// закрыть по отмене контекста
	go func() {
		<-ctx.Done()
		g.closed.Store(true)
		g.closeConn()
	}()

	backoff := g.minBackoff

	for {
		if conn := g.currentConn(); conn != nil {
			_, data, err := conn.ReadMessage()
			if err == nil {
				reconnect, herr := g.handlePayload(data)
				if herr != nil {
					g.emitError(herr)
				}
				if !reconnect {
					backoff = g.minBackoff
					continue
				}
			} else {
				if g.closed.Load() {
					return
				}
				var ce *websocket.CloseError
				if errors.As(err, &ce) && fatalCloseCode(ce.Code) {
					g.emitError(fmt.Errorf("%w: %d %s", ErrFatalClose, ce.Code, ce.Text))
					return
				}
				g.emitError(err)
			}
		}
		if g.closed.Load() {
			return
		}

		g.closeConn()

		// реконнект с backoff
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if g.OnConnecting != nil {
				g.OnConnecting()
			}
			err := g.dialAndHandshake(ctx)
			if err == nil {
				backoff = g.minBackoff
				break
			}
			g.emitError(fmt.Errorf("reconnect failed (wait %v): %w", backoff, err))
			if backoff < g.maxBackoff {
				backoff *= 2
				if backoff > g.maxBackoff {
					backoff = g.maxBackoff
				}
			}
		}
	}
}

// handlePayload разбирает один кадр. reconnect=true - сервер просит переподключиться.
func (g *Gateway) handlePayload(data []byte) (reconnect bool, err error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return false, fmt.Errorf("decode payload: %w", err)
	}
	if p.S != nil {
		g.seq.Store(*p.S)
	}

	switch p.Op {
	case opDispatch:
		return false, g.dispatch(p.T, p.D)
	case opHeartbeat:
		// сервер просит heartbeat вне очереди
		if conn := g.currentConn(); conn != nil {
			return false, g.write(conn, outPayload{Op: opHeartbeat, D: g.seqValue()})
		}
	case opHeartbeatACK:
		g.awaitingAck.Store(false)
		g.touchAck()
	case opReconnect:
		return true, nil
	case opInvalidSession:
		var resumable bool
		_ = json.Unmarshal(p.D, &resumable)
		if !resumable {
			g.resetSession()
		}
		return true, nil
	}
	return false, nil
}

func (g *Gateway) dispatch(event string, data json.RawMessage) error {
	switch event {
	case "READY":
		var r Ready
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode READY: %w", err)
		}
		g.mu.Lock()
		g.sessionID = r.SessionID
		g.resumeURL = r.ResumeGatewayURL
		g.mu.Unlock()
		g.connected.Store(true)
		if g.OnConnected != nil {
			g.OnConnected(&r)
		}

	case "RESUMED":
		g.connected.Store(true)
		if g.OnConnected != nil {
			g.OnConnected(nil)
		}

	case "INTERACTION_CREATE":
		var i Interaction
		if err := json.Unmarshal(data, &i); err != nil {
			return fmt.Errorf("decode interaction: %w", err)
		}
		if g.OnInteraction != nil {
			g.OnInteraction(&i)
		}

	case "MESSAGE_CREATE":
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		if g.OnMessage != nil {
			g.OnMessage(&m)
		}
	}
	return nil
}

// коды закрытия, после которых Discord не даст переподключиться
func fatalCloseCode(code int) bool {
	switch code {
	case 4004, 4010, 4011, 4012, 4013, 4014:
		return true
	}
	return false
}
