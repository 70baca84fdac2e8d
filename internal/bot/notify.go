package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/clock"
	"github.com/EgorLis/chestbot/internal/discord"
	"github.com/EgorLis/chestbot/internal/tracker"
)

const (
	notifyQueueSize = 64
	sendTimeout     = 15 * time.Second
)

type outgoing struct {
	kind      tracker.EventType
	chest     string
	channelID string
	msg       *discord.MessageSend
}

// Notifier превращает события трекера в сообщения канала.
// Отправка идёт в своей горутине, чтобы трекер не ждал Discord.
type Notifier struct {
	api     API
	log     *zap.Logger
	clock   clock.Clock
	respawn time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan outgoing
	wg     sync.WaitGroup

	unsubscribe func()
}

func NewNotifier(api API, t *tracker.Tracker, log *zap.Logger, clk clock.Clock) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	n := &Notifier{
		api:     api,
		log:     log,
		clock:   clk,
		respawn: t.Config().RespawnDuration,
		queue:   make(chan outgoing, notifyQueueSize),
	}
	n.wg.Add(1)
	go n.worker()
	n.unsubscribe = t.Subscribe(n.handle)
	return n
}

func (n *Notifier) handle(ev tracker.Event) {
	now := n.clock.Now()
	var msg *discord.MessageSend
	switch ev.Type {
	case tracker.EventLooted:
		msg = lootedMessage(ev.Chest, n.respawn, now)
	case tracker.EventNotification:
		msg = respawnSoonMessage(ev.Chest, ev.Remaining, now)
	case tracker.EventRespawned:
		msg = respawnedMessage(ev.Chest, now)
	default:
		return
	}

	channelID := ev.ChannelID
	if channelID == "" {
		channelID = ev.Chest.ChannelID
	}
	if channelID == "" {
		n.log.Warn("no channel for chest event",
			zap.String("chest", ev.Chest.ID), zap.Stringer("event", ev.Type))
		return
	}
	n.enqueue(outgoing{kind: ev.Type, chest: ev.Chest.ID, channelID: channelID, msg: msg})
}

func (n *Notifier) enqueue(o outgoing) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- o:
	default:
		// очередь забита - Discord лежит или тормозит, терять трекер нельзя
		n.log.Warn("notification queue full, dropping",
			zap.String("chest", o.chest), zap.Stringer("event", o.kind))
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for o := range n.queue {
		n.send(o)
	}
}

func (n *Notifier) send(o outgoing) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if _, err := n.api.CreateMessage(ctx, o.channelID, o.msg); err != nil {
		n.log.Error("failed to send notification",
			zap.String("chest", o.chest),
			zap.Stringer("event", o.kind),
			zap.String("channel", o.channelID),
			zap.Error(err))
		return
	}
	n.log.Info("notification sent",
		zap.String("chest", o.chest), zap.Stringer("event", o.kind))
}

// Close отписывается от трекера, досылает очередь и ждёт воркер.
// Повторный вызов ничего не делает.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.unsubscribe()
	n.wg.Wait()
}
