package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/EgorLis/chestbot/internal/discord"
	"github.com/EgorLis/chestbot/internal/tracker"
)

// лимит Discord на число полей в embed
const maxEmbedFields = 25

var errorReply = ephemeral("An error occurred while processing your command.")

func ephemeral(text string) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.InteractionResponseData{Content: text, Flags: discord.FlagEphemeral},
	}
}

func embedReply(e discord.Embed) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.ResponseChannelMessage,
		Data: &discord.InteractionResponseData{Embeds: []discord.Embed{e}},
	}
}

func (bot *ChestBot) handleInteraction(ctx context.Context, i *discord.Interaction) {
	switch i.Type {
	case discord.InteractionApplicationCommand:
		bot.handleCommand(ctx, i)
	case discord.InteractionMessageComponent:
		bot.handleButton(ctx, i)
	}
}

func (bot *ChestBot) handleCommand(ctx context.Context, i *discord.Interaction) {
	data, err := i.CommandData()
	if err != nil {
		bot.log.Warn("bad command interaction", zap.Error(err))
		bot.reply(ctx, i, errorReply)
		return
	}
	if data.Name != "chest" {
		bot.reply(ctx, i, ephemeral("Unknown command"))
		return
	}
	if len(data.Options) == 0 {
		bot.reply(ctx, i, ephemeral("Unknown subcommand"))
		return
	}
	sub := data.Options[0]
	var name string
	if o, ok := discord.Option(sub.Options, "name"); ok {
		name = strings.TrimSpace(o.String())
	}

	bot.log.Debug("command",
		zap.String("sub", sub.Name),
		zap.String("name", name),
		zap.String("user", userName(i)),
		zap.String("channel", i.ChannelID))

	var resp *discord.InteractionResponse
	switch sub.Name {
	case "create":
		resp = bot.cmdCreate(name, i.ChannelID)
	case "list":
		resp = bot.cmdList()
	case "remove":
		resp = bot.cmdRemove(name)
	case "status":
		resp = bot.cmdStatus()
	case "looted":
		resp = bot.cmdLooted(name, i.ChannelID, i.ID, false)
	case "loot":
		resp = bot.cmdLooted(name, i.ChannelID, i.ID, true)
	default:
		resp = ephemeral("Unknown subcommand")
	}
	bot.reply(ctx, i, resp)
}

func (bot *ChestBot) reply(ctx context.Context, i *discord.Interaction, resp *discord.InteractionResponse) {
	if err := bot.api.CreateInteractionResponse(ctx, i.ID, i.Token, resp); err != nil {
		bot.log.Error("failed to reply to interaction",
			zap.String("interaction", i.ID), zap.Error(err))
	}
}

func (bot *ChestBot) cmdCreate(name, channelID string) *discord.InteractionResponse {
	id := tracker.NormalizeID(name)
	if id == "" {
		return ephemeral("❌ Chest name must contain letters or digits.")
	}
	if _, ok := bot.tracker.Get(id); ok {
		return ephemeral(fmt.Sprintf("Chest \"%s\" is already being tracked!", name))
	}
	if _, err := bot.tracker.Create(name, channelID); err != nil {
		// гонка с параллельным create того же имени
		bot.log.Warn("create chest", zap.String("name", name), zap.Error(err))
		return ephemeral(fmt.Sprintf("Chest \"%s\" is already being tracked!", name))
	}

	return embedReply(discord.Embed{
		Title:       "✅ Chest Added",
		Description: fmt.Sprintf("Chest \"%s\" has been added to tracking.", name),
		Color:       colorGreen,
		Fields: []discord.EmbedField{
			{Name: "Name", Value: name, Inline: true},
			{Name: "Status", Value: "Inactive (waiting for loot)", Inline: true},
			{Name: "Respawn Time", Value: humanDuration(bot.tracker.Config().RespawnDuration) + " after loot", Inline: true},
		},
		Timestamp: timestamp(bot.clock.Now()),
	})
}

func (bot *ChestBot) cmdList() *discord.InteractionResponse {
	chests := bot.tracker.List()
	if len(chests) == 0 {
		return ephemeral("No chests are currently being tracked.")
	}
	now := bot.clock.Now()

	e := discord.Embed{
		Title:       "📦 Tracked Chests",
		Description: fmt.Sprintf("Currently tracking %d chest(s)", len(chests)),
		Color:       colorBlue,
		Timestamp:   timestamp(now),
	}
	for _, c := range chests {
		if len(e.Fields) == maxEmbedFields {
			break
		}
		status, until := "🟢 Respawned", "N/A"
		if c.Active {
			status, until = "🟠 Looted", formatUntil(c.Until(now))
		}
		e.Fields = append(e.Fields, discord.EmbedField{
			Name:   c.Name,
			Value:  fmt.Sprintf("Status: %s\nRespawn: %s", status, until),
			Inline: true,
		})
	}
	return embedReply(e)
}

func (bot *ChestBot) cmdRemove(name string) *discord.InteractionResponse {
	if bot.tracker.Remove(tracker.NormalizeID(name)) {
		return ephemeral(fmt.Sprintf("✅ Chest \"%s\" has been removed from tracking.", name))
	}
	return bot.notFound(name)
}

func (bot *ChestBot) cmdStatus() *discord.InteractionResponse {
	chests := bot.tracker.List()
	if len(chests) == 0 {
		return ephemeral("No chests are currently being tracked.")
	}
	now := bot.clock.Now()

	var looted, ready []string
	for _, c := range chests {
		if c.Active {
			looted = append(looted, fmt.Sprintf("**%s**: Respawns in %s", c.Name, formatUntil(c.Until(now))))
		} else {
			ready = append(ready, fmt.Sprintf("**%s**: Waiting for loot", c.Name))
		}
	}

	e := discord.Embed{
		Title:       "📊 Chest Status Overview",
		Description: fmt.Sprintf("Tracking %d total chest(s)", len(chests)),
		Color:       colorBlue,
		Timestamp:   timestamp(now),
	}
	if len(looted) > 0 {
		e.Fields = append(e.Fields, discord.EmbedField{
			Name:  fmt.Sprintf("🟠 Looted chests (%d)", len(looted)),
			Value: strings.Join(looted, "\n"),
		})
	}
	if len(ready) > 0 {
		e.Fields = append(e.Fields, discord.EmbedField{
			Name:  fmt.Sprintf("🟢 Respawned chests (%d)", len(ready)),
			Value: strings.Join(ready, "\n"),
		})
	}
	return embedReply(e)
}

// cmdLooted - /chest looted; create=true - скрытый /chest loot,
// который заводит сундук, если его ещё нет.
func (bot *ChestBot) cmdLooted(name, channelID, interactionID string, create bool) *discord.InteractionResponse {
	id := tracker.NormalizeID(name)
	dur := humanDuration(bot.tracker.Config().RespawnDuration)
	now := bot.clock.Now()

	fields := func() []discord.EmbedField {
		return []discord.EmbedField{
			{Name: "Chest Name", Value: name, Inline: true},
			{Name: "Looted At", Value: discordTime(now), Inline: true},
			{Name: "Next Respawn", Value: dur, Inline: true},
		}
	}
	footer := &discord.EmbedFooter{Text: fmt.Sprintf("Timer started - %s until respawn", dur)}

	if id != "" && bot.tracker.MarkLooted(id, channelID, interactionID) {
		return embedReply(discord.Embed{
			Title:       "🔄 Chest Timer Updated",
			Description: fmt.Sprintf("Chest \"%s\" timer has been reset!", name),
			Color:       colorOrange,
			Fields:      fields(),
			Footer:      footer,
			Timestamp:   timestamp(now),
		})
	}
	if !create || id == "" {
		return bot.notFound(name)
	}

	if _, err := bot.tracker.CreateLooted(name, channelID, interactionID); err != nil {
		bot.log.Warn("create looted chest", zap.String("name", name), zap.Error(err))
		return errorReply
	}
	return embedReply(discord.Embed{
		Title:       "📦 Chest Looted",
		Description: fmt.Sprintf("Chest \"%s\" has been looted and added to tracking!", name),
		Color:       colorOrange,
		Fields:      fields(),
		Footer:      footer,
		Timestamp:   timestamp(now),
	})
}

func (bot *ChestBot) notFound(name string) *discord.InteractionResponse {
	return ephemeral(fmt.Sprintf("❌ No chest with name \"%s\" available. Available options are: %s",
		name, bot.availableNames()))
}

func (bot *ChestBot) availableNames() string {
	chests := bot.tracker.List()
	if len(chests) == 0 {
		return "No chests available"
	}
	names := make([]string, 0, len(chests))
	for _, c := range chests {
		names = append(names, fmt.Sprintf("\"%s\"", c.Name))
	}
	return strings.Join(names, ", ")
}
