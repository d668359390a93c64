// Package bot wires the Discord session to the command handlers and the
// reaction-driven ledger updates.
package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/ykitano/splitbot/internal/aliases"
	"github.com/ykitano/splitbot/internal/debts"
	"github.com/ykitano/splitbot/internal/ledger"
	"github.com/ykitano/splitbot/internal/llm"
	"github.com/ykitano/splitbot/internal/reconcile"
)

type Bot struct {
	session *discordgo.Session
	ledger  *ledger.Ledger
	aliases *aliases.Directory
	debts   *debts.Service
	engine  *reconcile.Engine
	vision  *llm.Client
}

func New(token string, led *ledger.Ledger, dir *aliases.Directory,
	svc *debts.Service, engine *reconcile.Engine, client *llm.Client) (*Bot, error) {

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		ledger:  led,
		aliases: dir,
		debts:   svc,
		engine:  engine,
		vision:  client,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)
	session.AddHandler(bot.onReactionAdd)
	session.AddHandler(bot.onReactionRemove)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}
