package bot

import (
	"fmt"
	"time"

	"github.com/EgorLis/chestbot/internal/discord"
	"github.com/EgorLis/chestbot/internal/tracker"
)

const (
	colorGreen  = 0x00ff00
	colorBlue   = 0x0099ff
	colorOrange = 0xff6600
	colorAmber  = 0xff9900
)

func lootedMessage(c tracker.Chest, respawn time.Duration, now time.Time) *discord.MessageSend {
	dur := humanDuration(respawn)
	return &discord.MessageSend{
		Content: fmt.Sprintf("📦 **%s** was looted! Timer reset to %s.", c.Name, dur),
		Embeds: []discord.Embed{{
			Title:       "📦 Chest Looted",
			Description: fmt.Sprintf("**%s** has been looted!", c.Name),
			Color:       colorOrange,
			Fields: []discord.EmbedField{
				{Name: "Chest Name", Value: c.Name, Inline: true},
				{Name: "Looted At", Value: discordTime(c.LastLooted), Inline: true},
				{Name: "Next Respawn", Value: discordTime(c.RespawnTime), Inline: true},
			},
			Footer:    &discord.EmbedFooter{Text: fmt.Sprintf("Timer started - %s until respawn", dur)},
			Timestamp: timestamp(now),
		}},
	}
}

func respawnSoonMessage(c tracker.Chest, remaining time.Duration, now time.Time) *discord.MessageSend {
	mins := minutesLeft(remaining)
	return &discord.MessageSend{
		Content: fmt.Sprintf("🎯 **%s** will respawn in %d minutes!", c.Name, mins),
		Embeds: []discord.Embed{{
			Title:       "⚠️ Chest Respawn Alert",
			Description: fmt.Sprintf("**%s** will respawn soon!", c.Name),
			Color:       colorAmber,
			Fields: []discord.EmbedField{
				{Name: "Chest Name", Value: c.Name, Inline: true},
				{Name: "Time Until Respawn", Value: fmt.Sprintf("%d minutes", mins), Inline: true},
				{Name: "Last Looted", Value: discordTime(c.LastLooted), Inline: true},
			},
			Footer:    &discord.EmbedFooter{Text: "Get ready to loot!"},
			Timestamp: timestamp(now),
		}},
		Components: []discord.Component{claimButtons(c.ID)},
	}
}

func respawnedMessage(c tracker.Chest, now time.Time) *discord.MessageSend {
	return &discord.MessageSend{
		Content: fmt.Sprintf("🎯 **%s** has respawned! Go get it!", c.Name),
		Embeds: []discord.Embed{{
			Title:       "🎉 Chest Respawned!",
			Description: fmt.Sprintf("**%s** has respawned and is ready to loot!", c.Name),
			Color:       colorGreen,
			Fields: []discord.EmbedField{
				{Name: "Chest Name", Value: c.Name, Inline: true},
				{Name: "Last Looted", Value: discordTime(c.LastLooted), Inline: true},
				{Name: "Respawn Time", Value: discordTime(now), Inline: true},
			},
			Footer:    &discord.EmbedFooter{Text: "Happy hunting!"},
			Timestamp: timestamp(now),
		}},
	}
}

func claimButtons(chestID string) discord.Component {
	return discord.ActionRow(
		discord.Button(claimedPrefix+chestID, "I Got It!", "✅", discord.ButtonSuccess),
		discord.Button(missedPrefix+chestID, "Missed It", "❌", discord.ButtonDanger),
	)
}
