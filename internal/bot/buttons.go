package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/discord"
)

const (
	claimedPrefix = "chest_claimed_"
	missedPrefix  = "chest_missed_"

	clickedLimit = 1000
	clickedKeep  = 500
)

// clickedSet - id сообщений, кнопки которых уже нажаты.
type clickedSet struct {
	mu    sync.Mutex
	order []string
	seen  map[string]struct{}
}

func newClickedSet() *clickedSet {
	return &clickedSet{seen: make(map[string]struct{})}
}

func (s *clickedSet) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// add - false, если id уже был (кто-то успел нажать раньше).
func (s *clickedSet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	if len(s.order) > clickedLimit {
		drop := s.order[:len(s.order)-clickedKeep]
		for _, old := range drop {
			delete(s.seen, old)
		}
		s.order = append([]string(nil), s.order[len(s.order)-clickedKeep:]...)
	}
	return true
}

func (s *clickedSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (bot *ChestBot) handleButton(ctx context.Context, i *discord.Interaction) {
	data, err := i.ComponentData()
	if err != nil {
		bot.log.Warn("bad component interaction", zap.Error(err))
		bot.reply(ctx, i, errorReply)
		return
	}
	if i.Message == nil {
		bot.log.Warn("button interaction without message", zap.String("custom_id", data.CustomID))
		return
	}
	msgID := i.Message.ID

	if bot.clicked.has(msgID) {
		bot.reply(ctx, i, ephemeral("❌ These buttons have already been used by someone else."))
		return
	}

	switch {
	case strings.HasPrefix(data.CustomID, claimedPrefix):
		id := strings.TrimPrefix(data.CustomID, claimedPrefix)
		c, ok := bot.tracker.Get(id)
		if !ok {
			bot.reply(ctx, i, ephemeral("❌ Chest not found. It may have been removed from tracking."))
			return
		}
		if !bot.clicked.add(msgID) {
			bot.reply(ctx, i, ephemeral("❌ These buttons have already been used by someone else."))
			return
		}
		bot.tracker.MarkLooted(id, i.ChannelID, i.ID)
		bot.log.Info("chest claimed",
			zap.String("chest", id), zap.String("user", userName(i)))
		bot.reply(ctx, i, ephemeral(fmt.Sprintf("✅ Chest \"%s\" claimed! Timer has been restarted to %s.",
			c.Name, humanDuration(bot.tracker.Config().RespawnDuration))))
		bot.disableButtons(ctx, i)

	case strings.HasPrefix(data.CustomID, missedPrefix):
		if !bot.clicked.add(msgID) {
			bot.reply(ctx, i, ephemeral("❌ These buttons have already been used by someone else."))
			return
		}
		bot.log.Info("chest missed",
			zap.String("chest", strings.TrimPrefix(data.CustomID, missedPrefix)),
			zap.String("user", userName(i)))
		bot.reply(ctx, i, ephemeral("❌ Chest missed. Better luck next time!"))
		bot.disableButtons(ctx, i)

	default:
		bot.log.Debug("unknown button", zap.String("custom_id", data.CustomID))
	}
}

// disableButtons заменяет кнопки сообщения неактивными копиями.
// custom_id у них уникальные, чтобы Discord не склеивал их со старыми.
func (bot *ChestBot) disableButtons(ctx context.Context, i *discord.Interaction) {
	claimed := discord.Button(claimedPrefix+uuid.NewString()+"_disabled", "I Got It!", "✅", discord.ButtonSuccess)
	claimed.Disabled = true
	missed := discord.Button(missedPrefix+uuid.NewString()+"_disabled", "Missed It", "❌", discord.ButtonDanger)
	missed.Disabled = true

	channelID := i.Message.ChannelID
	if channelID == "" {
		channelID = i.ChannelID
	}
	edit := &discord.MessageEdit{Components: []discord.Component{discord.ActionRow(claimed, missed)}}
	if _, err := bot.api.EditMessage(ctx, channelID, i.Message.ID, edit); err != nil {
		bot.log.Error("failed to disable buttons",
			zap.String("message", i.Message.ID), zap.Error(err))
	}
}

func userName(i *discord.Interaction) string {
	if u := i.Author(); u != nil {
		return u.Username
	}
	return ""
}
