package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/clock"
	"github.com/EgorLis/chestbot/internal/config"
	"github.com/EgorLis/chestbot/internal/discord"
	"github.com/EgorLis/chestbot/internal/tracker"
)

// API - часть REST Discord, которой пользуется бот.
type API interface {
	CreateMessage(ctx context.Context, channelID string, m *discord.MessageSend) (*discord.Message, error)
	EditMessage(ctx context.Context, channelID, messageID string, m *discord.MessageEdit) (*discord.Message, error)
	CreateInteractionResponse(ctx context.Context, interactionID, token string, r *discord.InteractionResponse) error
}

type Option func(*ChestBot)

func WithClock(c clock.Clock) Option {
	return func(b *ChestBot) { b.clock = c }
}

// WithAPI подменяет REST-клиент (тесты).
func WithAPI(api API) Option {
	return func(b *ChestBot) { b.api = api }
}

type ChestBot struct {
	cfg   config.Config
	log   *zap.Logger
	clock clock.Clock

	tracker  *tracker.Tracker
	rest     *discord.REST
	api      API
	gw       *discord.Gateway
	notifier *Notifier
	clicked  *clickedSet

	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(cfg config.Config, log *zap.Logger, opts ...Option) *ChestBot {
	if log == nil {
		log = zap.NewNop()
	}
	rest := discord.NewREST(cfg.Token)
	if cfg.APIURL != "" {
		rest.SetBaseURL(cfg.APIURL)
	}
	bot := &ChestBot{
		cfg:     cfg,
		log:     log,
		clock:   clock.Real(),
		rest:    rest,
		api:     rest,
		clicked: newClickedSet(),
	}
	for _, opt := range opts {
		opt(bot)
	}
	bot.tracker = tracker.New(cfg.Tracker(),
		tracker.WithClock(bot.clock),
		tracker.WithLogger(log.Named("tracker")))
	return bot
}

func (bot *ChestBot) Tracker() *tracker.Tracker { return bot.tracker }

// Connected - есть живая сессия Gateway.
func (bot *ChestBot) Connected() bool {
	bot.mu.Lock()
	gw := bot.gw
	bot.mu.Unlock()
	return gw != nil && gw.Connected()
}

func (bot *ChestBot) ChestCount() int { return bot.tracker.Len() }

// SinceLastAck - время с последнего heartbeat ACK; без Gateway - час.
func (bot *ChestBot) SinceLastAck() time.Duration {
	bot.mu.Lock()
	gw := bot.gw
	bot.mu.Unlock()
	if gw == nil {
		return time.Hour
	}
	return gw.SinceLastAck()
}

// CheckToken спрашивает у Discord, чей это токен.
func (bot *ChestBot) CheckToken(ctx context.Context) (*discord.User, error) {
	u, err := bot.rest.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	bot.log.Info("token accepted", zap.String("user", u.Username), zap.String("id", u.ID))
	return u, nil
}

// RegisterCommands проверяет токен и перезаписывает slash-команды гильдии.
func (bot *ChestBot) RegisterCommands(ctx context.Context) error {
	if _, err := bot.CheckToken(ctx); err != nil {
		return err
	}
	cmds, err := bot.rest.BulkOverwriteGuildCommands(ctx, bot.cfg.ClientID, bot.cfg.GuildID, CommandData())
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	bot.log.Info("slash commands registered", zap.Int("count", len(cmds)), zap.String("guild", bot.cfg.GuildID))
	return nil
}

// SeedChests регистрирует неактивными сундуки из конфига; уже известные пропускаются.
func (bot *ChestBot) SeedChests(names []string) {
	for _, name := range names {
		c, err := bot.tracker.Create(name, "")
		switch {
		case err == nil:
			bot.log.Info("chest seeded", zap.String("chest", c.ID))
		case errors.Is(err, tracker.ErrChestExists):
			bot.log.Debug("chest already tracked", zap.String("name", name))
		default:
			bot.log.Warn("skip configured chest", zap.String("name", name), zap.Error(err))
		}
	}
}

func (bot *ChestBot) Start(ctx context.Context) error {
	if bot == nil {
		return errors.New("bot is not initialized")
	}
	bot.mu.Lock()
	if bot.stopCh != nil {
		bot.mu.Unlock()
		return errors.New("already started")
	}
	bot.stopCh = make(chan struct{})
	bot.mu.Unlock()

	if err := bot.RegisterCommands(ctx); err != nil {
		bot.resetStop()
		return err
	}
	bot.SeedChests(bot.cfg.Chests)
	bot.notifier = NewNotifier(bot.api, bot.tracker, bot.log.Named("notifier"), bot.clock)

	ctx, cancel := context.WithCancel(ctx)
	gw := bot.newGateway(ctx)
	if err := gw.Connect(ctx); err != nil {
		cancel()
		bot.notifier.Close()
		bot.resetStop()
		return fmt.Errorf("gateway connect: %w", err)
	}
	bot.mu.Lock()
	bot.gw = gw
	stop := bot.stopCh
	bot.mu.Unlock()

	// сторож для остановки
	bot.wg.Add(1)
	go func() {
		defer bot.wg.Done()
		<-stop
		cancel()
		gw.Disconnect()
	}()
	return nil
}

func (bot *ChestBot) newGateway(ctx context.Context) *discord.Gateway {
	intents := discord.IntentGuilds | discord.IntentGuildMessages
	if bot.cfg.LegacyText {
		intents |= discord.IntentMessageContent
	}
	gw := discord.NewGateway(bot.cfg.Token, intents)
	if bot.cfg.GatewayURL != "" {
		gw.SetURL(bot.cfg.GatewayURL)
	}
	log := bot.log.Named("gateway")

	gw.OnConnecting = func() { log.Info("connecting...") }
	gw.OnConnected = func(r *discord.Ready) {
		if r == nil {
			log.Info("session resumed")
			return
		}
		log.Info("bot is ready", zap.String("user", r.User.Username), zap.String("session", r.SessionID))
	}
	gw.OnDisconnected = func() { log.Info("disconnected") }
	gw.OnError = func(err error) { log.Warn("gateway error", zap.Error(err)) }

	// REST-ответы не должны держать readLoop
	gw.OnInteraction = func(i *discord.Interaction) {
		bot.wg.Add(1)
		go func() {
			defer bot.wg.Done()
			bot.handleInteraction(ctx, i)
		}()
	}
	if bot.cfg.LegacyText {
		gw.OnMessage = func(m *discord.Message) {
			bot.wg.Add(1)
			go func() {
				defer bot.wg.Done()
				bot.handleMessage(ctx, m)
			}()
		}
	}
	return gw
}

// Stop отключает Gateway, ждёт обработчики, гасит таймеры и досылает очередь.
// Повторный Stop() ничего не делает.
func (bot *ChestBot) Stop() {
	bot.mu.Lock()
	ch := bot.stopCh
	bot.stopCh = nil
	bot.mu.Unlock()

	if ch == nil {
		return
	}
	close(ch)
	bot.wg.Wait()

	bot.tracker.Destroy()
	if bot.notifier != nil {
		bot.notifier.Close()
	}
	bot.log.Info("bot shutdown complete")
}

func (bot *ChestBot) resetStop() {
	bot.mu.Lock()
	bot.stopCh = nil
	bot.mu.Unlock()
}

// handleMessage - старый текстовый путь: "looted D4" в чате отмечает сундук.
func (bot *ChestBot) handleMessage(ctx context.Context, m *discord.Message) {
	if m.Author != nil && m.Author.Bot {
		return
	}
	name, ok := parseLootMessage(m.Content)
	if !ok {
		return
	}
	id := tracker.NormalizeID(name)
	if id == "" {
		return
	}
	bot.log.Debug("loot message matched", zap.String("name", name), zap.String("message", m.ID))

	if bot.tracker.MarkLooted(id, m.ChannelID, m.ID) {
		return
	}
	c, err := bot.tracker.CreateLooted(name, m.ChannelID, m.ID)
	if err != nil {
		bot.log.Warn("create chest from message", zap.String("name", name), zap.Error(err))
		return
	}
	_, err = bot.api.CreateMessage(ctx, m.ChannelID, &discord.MessageSend{
		Content: fmt.Sprintf("📦 Chest \"%s\" looted and added to tracking. Respawn in %s.",
			c.Name, humanDuration(bot.tracker.Config().RespawnDuration)),
		Reference: &discord.MessageReference{MessageID: m.ID, ChannelID: m.ChannelID},
	})
	if err != nil {
		bot.log.Error("failed to reply to loot message", zap.String("message", m.ID), zap.Error(err))
	}
}
