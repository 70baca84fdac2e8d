package tracker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/clock"
)

var (
	ErrChestExists  = errors.New("chest already tracked")
	ErrInvalidName  = errors.New("chest name is empty")
	ErrInvalidTimes = errors.New("respawn time is before last loot time")
)

type Config struct {
	RespawnDuration  time.Duration
	NotificationLead time.Duration // за сколько до респавна предупреждать
}

func DefaultConfig() Config {
	return Config{
		RespawnDuration:  90 * time.Minute,
		NotificationLead: 15 * time.Minute,
	}
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// timerHandle - обёртка, по указателю на которую колбэк понимает,
// что его таймер всё ещё актуален.
type timerHandle struct {
	t clock.Timer
}

// Tracker - реестр сундуков и по два таймера на каждый: респавн и предупреждение.
// Все мутации и колбэки таймеров идут под одним мьютексом.
type Tracker struct {
	cfg   Config
	clock clock.Clock
	log   *zap.Logger

	mu      sync.Mutex
	chests  map[string]*Chest
	order   []string
	respawn map[string]*timerHandle
	notify  map[string]*timerHandle

	subs     []subscriber
	nextSub  uint64
	queue    []Event
	draining bool
}

func New(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:     cfg,
		clock:   clock.Real(),
		log:     zap.NewNop(),
		chests:  make(map[string]*Chest),
		respawn: make(map[string]*timerHandle),
		notify:  make(map[string]*timerHandle),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Config() Config { return t.cfg }

// Add регистрирует сундук; если он Active - сразу ставит таймеры.
// ID всегда NormalizeID(Name): пустой выводится, несовпадающий отклоняется
// с ErrInvalidName. Дубликат id отклоняется с ErrChestExists.
func (t *Tracker) Add(c Chest) error {
	id := NormalizeID(c.Name)
	if id == "" || strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	if c.ID != "" && c.ID != id {
		return fmt.Errorf("%w: id %q does not match name %q", ErrInvalidName, c.ID, c.Name)
	}
	c.ID = id
	if c.RespawnTime.Before(c.LastLooted) {
		return ErrInvalidTimes
	}

	t.mu.Lock()
	if _, ok := t.chests[c.ID]; ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrChestExists, c.ID)
	}
	stored := c
	t.chests[c.ID] = &stored
	t.order = append(t.order, c.ID)
	t.startTrackingLocked(&stored)
	t.enqueueLocked(Event{Type: EventAdded, Chest: stored})
	t.mu.Unlock()

	t.log.Debug("chest added", zap.String("chest", c.ID), zap.Bool("active", c.Active))
	t.drain()
	return nil
}

// Create - сундук в ожидании первого лута (неактивный).
func (t *Tracker) Create(name, channelID string) (Chest, error) {
	c := t.newChest(name, channelID, "", false)
	if err := t.Add(c); err != nil {
		return Chest{}, err
	}
	return t.mustGet(c.ID), nil
}

// CreateLooted - сундук, который только что залутали: таймеры стартуют сразу.
func (t *Tracker) CreateLooted(name, channelID, messageID string) (Chest, error) {
	c := t.newChest(name, channelID, messageID, true)
	if err := t.Add(c); err != nil {
		return Chest{}, err
	}
	return t.mustGet(c.ID), nil
}

func (t *Tracker) newChest(name, channelID, messageID string, active bool) Chest {
	now := t.clock.Now()
	name = strings.TrimSpace(name)
	return Chest{
		ID:          NormalizeID(name),
		Name:        name,
		LastLooted:  now,
		RespawnTime: now.Add(t.cfg.RespawnDuration),
		ChannelID:   channelID,
		MessageID:   messageID,
		Active:      active,
	}
}

// Remove снимает таймеры и удаляет сундук. false - такого id нет.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	c, ok := t.chests[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	t.stopTrackingLocked(id)
	delete(t.chests, id)
	t.dropOrderLocked(id)
	t.enqueueLocked(Event{Type: EventRemoved, Chest: *c})
	t.mu.Unlock()

	t.log.Debug("chest removed", zap.String("chest", id))
	t.drain()
	return true
}

// MarkLooted перезапускает цикл респавна от текущего момента.
// false - сундука нет, ничего не изменилось.
func (t *Tracker) MarkLooted(id, channelID, messageID string) bool {
	t.mu.Lock()
	c, ok := t.chests[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	// старые таймеры гасим до того, как ставить новые
	t.stopTrackingLocked(id)

	now := t.clock.Now()
	c.LastLooted = now
	c.RespawnTime = now.Add(t.cfg.RespawnDuration)
	c.ChannelID = channelID
	c.MessageID = messageID
	c.Active = true

	t.startTrackingLocked(c)
	t.enqueueLocked(Event{Type: EventLooted, Chest: *c})
	respawnAt := c.RespawnTime
	t.mu.Unlock()

	t.log.Info("chest looted",
		zap.String("chest", id),
		zap.String("channel", channelID),
		zap.Time("respawn_at", respawnAt))
	t.drain()
	return true
}

func (t *Tracker) Get(id string) (Chest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.chests[id]
	if !ok {
		return Chest{}, false
	}
	return *c, true
}

// List - все сундуки в порядке добавления.
func (t *Tracker) List() []Chest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Chest, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.chests[id])
	}
	return out
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.chests)
}

// Subscribe добавляет обработчик событий; возвращает функцию отписки.
// Обработчик вызывается вне мьютекса трекера и может читать/менять трекер.
func (t *Tracker) Subscribe(fn func(Event)) (cancel func()) {
	t.mu.Lock()
	t.nextSub++
	id := t.nextSub
	t.subs = append(t.subs, subscriber{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Destroy гасит все таймеры и очищает реестр. Повторный вызов безопасен.
func (t *Tracker) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.chests {
		t.stopTrackingLocked(id)
	}
	// на случай хэндлов без сундука
	for id := range t.respawn {
		t.stopTrackingLocked(id)
	}
	for id := range t.notify {
		t.stopTrackingLocked(id)
	}
	t.chests = make(map[string]*Chest)
	t.order = nil
}

func (t *Tracker) mustGet(id string) Chest {
	c, _ := t.Get(id)
	return c
}

func (t *Tracker) startTrackingLocked(c *Chest) {
	if !c.Active {
		return
	}
	id := c.ID
	untilRespawn := c.RespawnTime.Sub(t.clock.Now())
	untilNotify := untilRespawn - t.cfg.NotificationLead

	if untilRespawn > 0 {
		h := &timerHandle{}
		h.t = t.clock.AfterFunc(untilRespawn, func() { t.onRespawn(id, h) })
		t.respawn[id] = h
	}
	// предупреждение в прошлом не ставим
	if untilNotify > 0 {
		h := &timerHandle{}
		h.t = t.clock.AfterFunc(untilNotify, func() { t.onNotify(id, h) })
		t.notify[id] = h
	}
}

func (t *Tracker) stopTrackingLocked(id string) {
	if h, ok := t.respawn[id]; ok {
		if h.t != nil {
			h.t.Stop()
		}
		delete(t.respawn, id)
	}
	if h, ok := t.notify[id]; ok {
		if h.t != nil {
			h.t.Stop()
		}
		delete(t.notify, id)
	}
}

func (t *Tracker) onRespawn(id string, h *timerHandle) {
	t.mu.Lock()
	// таймер уже заменён или снят - Stop мог опоздать
	if t.respawn[id] != h {
		t.mu.Unlock()
		return
	}
	c := t.chests[id]
	c.Active = false
	t.stopTrackingLocked(id)
	t.enqueueLocked(Event{Type: EventRespawned, Chest: *c})
	t.mu.Unlock()

	t.log.Info("chest respawned", zap.String("chest", id))
	t.drain()
}

func (t *Tracker) onNotify(id string, h *timerHandle) {
	t.mu.Lock()
	if t.notify[id] != h {
		t.mu.Unlock()
		return
	}
	delete(t.notify, id)
	c := t.chests[id]
	remaining := c.RespawnTime.Sub(t.clock.Now())
	t.enqueueLocked(Event{
		Type:      EventNotification,
		Chest:     *c,
		Remaining: remaining,
		ChannelID: c.ChannelID,
	})
	t.mu.Unlock()

	t.log.Debug("chest respawn soon", zap.String("chest", id), zap.Duration("remaining", remaining))
	t.drain()
}

func (t *Tracker) dropOrderLocked(id string) {
	for i, cur := range t.order {
		if cur == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *Tracker) enqueueLocked(ev Event) {
	t.queue = append(t.queue, ev)
}

// drain раздаёт накопленные события по одному, строго по порядку.
// Если раздачей уже занят кто-то другой (в т.ч. мы сами выше по стеку),
// он же доставит и наши события.
func (t *Tracker) drain() {
	t.mu.Lock()
	if t.draining {
		t.mu.Unlock()
		return
	}
	t.draining = true
	for len(t.queue) > 0 {
		ev := t.queue[0]
		t.queue[0] = Event{}
		t.queue = t.queue[1:]
		subs := append([]subscriber(nil), t.subs...)
		t.mu.Unlock()

		for _, s := range subs {
			t.deliver(s.fn, ev)
		}

		t.mu.Lock()
	}
	t.draining = false
	t.mu.Unlock()
}

func (t *Tracker) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("event handler panicked",
				zap.Stringer("event", ev.Type),
				zap.String("chest", ev.Chest.ID),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}
