package commands

import "github.com/bwmarrin/discordgo"

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         "split",
			Description:  "Split a receipt among participants and record the debts",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "Receipt photo",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "participants",
					Description: "Who shares the bill (mentions); you are always included",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "notes",
					Description: "Splitting instructions (default: split evenly)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "tip",
					Description: "Tip as an amount (4.50) or percentage (15%)",
				},
			},
		},
		{
			Name:         "debt",
			Description:  "Show how much one person owes another",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "debtor",
					Description: "Who owes",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "creditor",
					Description: "Who is owed",
					Required:    true,
				},
			},
		},
		{
			Name:         "owes",
			Description:  "Show everything a person owes",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The debtor",
					Required:    true,
				},
			},
		},
		{
			Name:         "owed",
			Description:  "Show everything owed to a person",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The creditor",
					Required:    true,
				},
			},
		},
		{
			Name:         "due",
			Description:  "Record something you owe someone",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "creditor",
					Description: "Who you owe",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "item",
					Description: "What the debt is for",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "price",
					Description: "Amount, e.g. 3.00",
					Required:    true,
				},
			},
		},
		{
			Name:         "alias",
			Description:  "Set the display name the bill splitter knows you by",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Display name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Set it for someone else (default: yourself)",
				},
			},
		},
		{
			Name:         "forgive",
			Description:  "Clear debts someone owes you",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "debtor",
					Description: "Whose debt to clear",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "transaction",
					Description: "Clear only this transaction (default: everything)",
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
