package bot

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ykitano/splitbot/internal/commands"
)

// receiptPrefix is the message command that posts claimable line items.
const receiptPrefix = "$receipt"

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)

	// Register commands for all guilds
	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			log.Printf("Failed to register commands for guild %s: %v", guild.ID, err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	log.Printf("Guild available/joined: %s (id=%s), ensuring commands", event.Name, event.ID)
	if err := b.registerGuildCommands(event.ID); err != nil {
		log.Printf("Failed to register commands for guild %s: %v", event.ID, err)
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	cmds := commands.GetCommands()
	// Delete existing commands and register new ones
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, cmds)
	if err != nil {
		return err
	}

	log.Printf("Registered application commands for guild %s", guildID)
	return nil
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author == nil || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == receiptPrefix || strings.HasPrefix(content, receiptPrefix+" ") {
		commands.HandleReceiptMessage(s, m, b.vision)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "split":
		commands.HandleSplit(s, i, b.vision, b.engine, b.aliases, b.ledger)
	case "debt":
		commands.HandleDebt(s, i, b.debts)
	case "owes":
		commands.HandleOwes(s, i, b.debts)
	case "owed":
		commands.HandleOwed(s, i, b.debts)
	case "due":
		commands.HandleDue(s, i, b.ledger)
	case "alias":
		commands.HandleAlias(s, i, b.aliases)
	case "forgive":
		commands.HandleForgive(s, i, b.ledger)
	}
}
