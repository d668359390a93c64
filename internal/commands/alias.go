package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ykitano/splitbot/internal/aliases"
)

func HandleAlias(s *discordgo.Session, i *discordgo.InteractionCreate, dir *aliases.Directory) {
	data := i.ApplicationCommandData()

	nameOpt := getStringOption(data.Options, "name")
	if nameOpt == nil || strings.TrimSpace(*nameOpt) == "" {
		respondText(s, i, "Specify a name.")
		return
	}
	name := strings.TrimSpace(*nameOpt)

	participant := getUserOption(data, "user")
	if participant == "" {
		participant = invokerID(i)
	}
	if participant == "" || i.GuildID == "" {
		respondText(s, i, "Aliases only work inside a server.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := dir.Set(ctx, i.GuildID, participant, name); err != nil {
		log.Printf("Alias set failed: %v", err)
		respondText(s, i, "Couldn't save that alias right now.")
		return
	}

	respondText(s, i, fmt.Sprintf("%s is now known as %q.", mention(participant), name))
}
