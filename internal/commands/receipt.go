package commands

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ykitano/splitbot/internal/receipt"
	"github.com/ykitano/splitbot/internal/transcript"
)

// HandleReceiptMessage serves the $receipt prefix command: extract the
// attached receipt and post one line-item message per item, each a reply
// to the user's post. The reply reference is what later identifies the
// creditor when someone reacts to a line.
func HandleReceiptMessage(s *discordgo.Session, m *discordgo.MessageCreate, vision receipt.VisionCompleter) {
	var attachments []*discordgo.MessageAttachment
	for _, att := range m.Attachments {
		if isImageFilename(att.Filename) {
			attachments = append(attachments, att)
		}
	}
	if len(attachments) == 0 {
		replyTo(s, m, "Please upload your receipt image.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), splitTimeout)
	defer cancel()

	for _, att := range attachments {
		items, err := receipt.Extract(ctx, vision, att.URL)
		if err != nil {
			if errors.Is(err, receipt.ErrExtractionFailed) {
				replyTo(s, m, "I couldn't read that receipt. Try a clearer photo.")
			} else {
				log.Printf("Receipt extraction failed: %v", err)
				replyTo(s, m, "Something went wrong reading the receipt.")
			}
			continue
		}

		for _, item := range items {
			_, err := s.ChannelMessageSendReply(m.ChannelID,
				transcript.Render(item.Name, item.Price), m.Reference())
			if err != nil {
				log.Printf("Failed to post line item: %v", err)
			}
		}
		replyTo(s, m, "React to an item to claim it.")
	}
}

func replyTo(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		log.Printf("Failed to reply: %v", err)
	}
}

func isImageFilename(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
