package bot

import "github.com/EgorLis/chestbot/internal/discord"

// CommandData - схема /chest для регистрации в гильдии.
// Подкоманда loot обрабатывается, но не регистрируется.
func CommandData() []discord.ApplicationCommand {
	nameOpt := func(desc string) []discord.CommandOption {
		return []discord.CommandOption{{
			Type:        discord.OptionString,
			Name:        "name",
			Description: desc,
			Required:    true,
		}}
	}
	return []discord.ApplicationCommand{{
		Name:        "chest",
		Description: "Manage chest tracking for Dune Awakening",
		Options: []discord.CommandOption{
			{
				Type:        discord.OptionSubCommand,
				Name:        "create",
				Description: "Create a new chest to track (inactive until looted)",
				Options:     nameOpt("Name of the chest to track"),
			},
			{
				Type:        discord.OptionSubCommand,
				Name:        "list",
				Description: "List all tracked chests",
			},
			{
				Type:        discord.OptionSubCommand,
				Name:        "remove",
				Description: "Remove a chest from tracking",
				Options:     nameOpt("Name of the chest to remove"),
			},
			{
				Type:        discord.OptionSubCommand,
				Name:        "status",
				Description: "Show status of all chests",
			},
			{
				Type:        discord.OptionSubCommand,
				Name:        "looted",
				Description: "Mark an existing chest as looted and start respawn timer",
				Options:     nameOpt("Name of the chest that was looted"),
			},
		},
	}}
}
