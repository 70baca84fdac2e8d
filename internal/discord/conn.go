package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ========================= low-level =========================

var dialer = websocket.Dialer{
	Proxy:            http.ProxyFromEnvironment,
	HandshakeTimeout: 10 * time.Second,
}

// адрес для (ре)коннекта: при живой сессии - resume_gateway_url из READY
func (g *Gateway) dialURL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessionID != "" && g.resumeURL != "" {
		u := strings.TrimRight(g.resumeURL, "/")
		return u + "/?v=10&encoding=json"
	}
	return g.url
}

// dial, чтение Hello, запуск heartbeat и Identify/Resume
func (g *Gateway) dialAndHandshake(ctx context.Context) error {
	conn, _, err := dialer.DialContext(ctx, g.dialURL(), nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(16 << 20)

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("read hello: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		_ = conn.Close()
		return fmt.Errorf("decode hello: %w", err)
	}
	if p.Op != opHello {
		_ = conn.Close()
		return fmt.Errorf("expected hello, got op %d", p.Op)
	}
	var h hello
	if err := json.Unmarshal(p.D, &h); err != nil {
		_ = conn.Close()
		return fmt.Errorf("decode hello: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	g.mu.Lock()
	g.conn = conn
	sessionID := g.sessionID
	g.mu.Unlock()

	g.touchAck()
	g.startHeartbeat(conn, time.Duration(h.HeartbeatInterval)*time.Millisecond)

	if seq := g.seq.Load(); sessionID != "" && seq > 0 {
		return g.write(conn, outPayload{Op: opResume, D: resume{
			Token:     g.token,
			SessionID: sessionID,
			Seq:       seq,
		}})
	}
	return g.write(conn, outPayload{Op: opIdentify, D: identify{
		Token:   g.token,
		Intents: g.intents,
		Properties: identifyProperties{
			OS:      runtime.GOOS,
			Browser: "chestbot",
			Device:  "chestbot",
		},
	}})
}

// запись строго через один мьютекс + write-deadline
func (g *Gateway) write(conn *websocket.Conn, v any) error {
	g.wmu.Lock()
	defer g.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(v)
}

func (g *Gateway) currentConn() *websocket.Conn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn
}

// безопасно закрыть текущее соединение
func (g *Gateway) closeConn() {
	g.stopHeartbeat()
	g.connected.Store(false)

	g.mu.Lock()
	conn := g.conn
	g.conn = nil
	g.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		_ = conn.Close()
	}
}

// забыть сессию: следующий коннект пойдёт через Identify
func (g *Gateway) resetSession() {
	g.mu.Lock()
	g.sessionID = ""
	g.resumeURL = ""
	g.mu.Unlock()
	g.seq.Store(0)
}

func (g *Gateway) seqValue() any {
	if s := g.seq.Load(); s > 0 {
		return s
	}
	return nil
}

func (g *Gateway) startHeartbeat(conn *websocket.Conn, every time.Duration) {
	g.stopHeartbeat()
	if every <= 0 {
		every = 40 * time.Second
	}
	stop := make(chan struct{})
	g.mu.Lock()
	g.hbStop = stop
	g.mu.Unlock()
	g.awaitingAck.Store(false)

	g.hbWG.Add(1)
	go func() {
		defer g.hbWG.Done()
		// первый удар с джиттером, как просит Discord
		t := time.NewTimer(time.Duration(rand.Float64() * float64(every)))
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if g.awaitingAck.Load() {
					// прошлый heartbeat без ACK - соединение подвисло, readLoop реконнектит
					g.emitError(errors.New("heartbeat not acknowledged"))
					_ = conn.Close()
					return
				}
				g.awaitingAck.Store(true)
				if err := g.write(conn, outPayload{Op: opHeartbeat, D: g.seqValue()}); err != nil {
					return
				}
				t.Reset(every)
			}
		}
	}()
}

func (g *Gateway) stopHeartbeat() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hbStop != nil {
		close(g.hbStop)
		g.hbStop = nil
	}
}

func (g *Gateway) touchAck() {
	g.lastAck.Store(time.Now().UnixNano())
}
