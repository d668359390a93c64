package commands

import (
	"log"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Printf("Failed to respond to interaction: %v", err)
	}
}

// respondDeferred acknowledges the interaction so a slow handler can
// answer with a followup later.
func respondDeferred(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func followupText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		log.Printf("Failed to send followup: %v", err)
	}
}

func getStringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	for _, o := range opts {
		if o.Name == name {
			v := o.StringValue()
			return &v
		}
	}
	return nil
}

func getUserOption(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, o := range data.Options {
		if o.Name != name {
			continue
		}
		if id, ok := o.Value.(string); ok && id != "" {
			return id
		}
		if u := o.UserValue(nil); u != nil {
			return u.ID
		}
	}
	return ""
}

// getAttachmentURL resolves an attachment option to its CDN URL.
func getAttachmentURL(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, o := range data.Options {
		if o.Name != name {
			continue
		}
		id, ok := o.Value.(string)
		if !ok || data.Resolved == nil {
			return ""
		}
		if att, ok := data.Resolved.Attachments[id]; ok {
			return att.URL
		}
	}
	return ""
}

var mentionRe = regexp.MustCompile(`<@!?([0-9]+)>`)

// parseMentionIDs accepts <@123>, <@!123>, and raw IDs separated by spaces.
func parseMentionIDs(text string) []string {
	var ids []string
	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	for _, tok := range strings.Fields(mentionRe.ReplaceAllString(text, " ")) {
		if allDigits(tok) {
			ids = append(ids, tok)
		}
	}
	return ids
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// invokerID is the acting principal: the guild member in a guild, the
// user in a DM.
func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
