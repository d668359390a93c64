package bot

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ykitano/splitbot/internal/ledger"
	"github.com/ykitano/splitbot/internal/transcript"
)

const reactionTimeout = 15 * time.Second

// onReactionAdd claims a line item: the reactor becomes the debtor for
// the item encoded in the message they reacted to.
func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.handleReaction(s, r.MessageReaction, true)
}

// onReactionRemove retracts the claim.
func (b *Bot) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.handleReaction(s, r.MessageReaction, false)
}

func (b *Bot) handleReaction(s *discordgo.Session, r *discordgo.MessageReaction, added bool) {
	if s.State.User == nil || r.UserID == s.State.User.ID {
		return
	}

	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		log.Printf("Failed to fetch reacted message %s: %v", r.MessageID, err)
		return
	}
	// Only our own line-item messages encode transactions.
	if msg.Author == nil || msg.Author.ID != s.State.User.ID {
		return
	}
	if msg.MessageReference == nil {
		return
	}

	referenced, err := s.ChannelMessage(r.ChannelID, msg.MessageReference.MessageID)
	if err != nil {
		log.Printf("Failed to fetch referenced message for %s: %v", r.MessageID, err)
		return
	}
	if referenced.Author == nil {
		return
	}

	token, err := transcript.Correlate(msg.ID, msg.Content, referenced.Author.ID)
	if err != nil {
		// Version skew or tampering; the ledger stays untouched.
		log.Printf("Ignoring reaction on unparseable line item %s: %v", r.MessageID, err)
		return
	}
	if r.UserID == token.Creditor {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reactionTimeout)
	defer cancel()

	if added {
		rec := ledger.Record{
			Debtor:        r.UserID,
			Creditor:      token.Creditor,
			TransactionID: token.TransactionID,
			Item:          token.Item,
			Price:         token.Price,
		}
		if err := b.ledger.Put(ctx, rec); err != nil {
			log.Printf("Failed to record claim of %q by %s: %v", token.Item, r.UserID, err)
		}
		return
	}

	err = b.ledger.Remove(ctx, r.UserID, token.Creditor, token.TransactionID, token.Item)
	if errors.Is(err, ledger.ErrNotFound) {
		log.Printf("No ledger entry for retracted claim of %q by %s; nothing removed", token.Item, r.UserID)
		return
	}
	if err != nil {
		log.Printf("Failed to remove claim of %q by %s: %v", token.Item, r.UserID, err)
	}
}
