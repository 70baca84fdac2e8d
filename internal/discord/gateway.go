package discord

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

type Gateway struct {
	url     string
	token   string
	intents int

	mu        sync.Mutex // conn + сессия
	conn      *websocket.Conn
	sessionID string
	resumeURL string

	wmu       sync.Mutex // сериализует запись в websocket
	seq       atomic.Int64
	closed    atomic.Bool
	connected atomic.Bool

	hbStop      chan struct{}
	hbWG        sync.WaitGroup
	awaitingAck atomic.Bool
	lastAck     atomic.Int64 // unix nanos последнего ACK

	cancel context.CancelFunc
	done   chan struct{}

	minBackoff time.Duration
	maxBackoff time.Duration

	// "События"
	OnConnecting   func()
	OnConnected    func(*Ready) // nil - сессия восстановлена через Resume
	OnInteraction  func(*Interaction)
	OnMessage      func(*Message)
	OnDisconnected func()
	OnError        func(error)
}

func NewGateway(token string, intents int) *Gateway {
	return &Gateway{
		url:        DefaultGatewayURL,
		token:      token,
		intents:    intents,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// SetURL - подменить адрес Gateway (тесты, прокси).
func (g *Gateway) SetURL(url string) {
	g.url = url
}

// Connect - подключается, проходит рукопожатие и запускает readLoop.
// READY придёт асинхронно в OnConnected.
func (g *Gateway) Connect(ctx context.Context) error {
	if g.done != nil {
		return errors.New("gateway already started")
	}
	if g.OnConnecting != nil {
		g.OnConnecting()
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := g.dialAndHandshake(ctx); err != nil {
		cancel()
		return err
	}
	g.closed.Store(false)
	g.cancel = cancel
	g.done = make(chan struct{})

	go g.readLoop(ctx)
	return nil
}

// Disconnect закрывает соединение и ждёт остановки фоновых горутин.
// Повторный вызов ничего не делает.
func (g *Gateway) Disconnect() {
	g.closed.Store(true)
	if g.cancel != nil {
		g.cancel()
	}
	g.closeConn()
	if g.done != nil {
		<-g.done
	}
	g.hbWG.Wait()
}

// Connected - true между READY/RESUMED и потерей соединения.
func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

// SinceLastAck - сколько прошло с последнего heartbeat ACK.
func (g *Gateway) SinceLastAck() time.Duration {
	n := g.lastAck.Load()
	if n == 0 {
		return time.Hour
	}
	return time.Since(time.Unix(0, n))
}

func (g *Gateway) emitError(err error) {
	if g.OnError != nil && !g.closed.Load() {
		g.OnError(err)
	}
}
