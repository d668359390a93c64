package commands

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ykitano/splitbot/internal/debts"
	"github.com/ykitano/splitbot/internal/money"
)

const queryTimeout = 10 * time.Second

func HandleDebt(s *discordgo.Session, i *discordgo.InteractionCreate, svc *debts.Service) {
	data := i.ApplicationCommandData()
	debtor := getUserOption(data, "debtor")
	creditor := getUserOption(data, "creditor")
	if debtor == "" || creditor == "" {
		respondText(s, i, "Specify two people to see money owed.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	amount, err := svc.UserToUser(ctx, debtor, creditor)
	if err != nil {
		log.Printf("Debt query failed: %v", err)
		respondText(s, i, "Couldn't look that up right now.")
		return
	}

	respondText(s, i, fmt.Sprintf("%s owes %s %s.", mention(debtor), mention(creditor), money.FormatUSD(amount)))
}

func HandleOwes(s *discordgo.Session, i *discordgo.InteractionCreate, svc *debts.Service) {
	data := i.ApplicationCommandData()
	user := getUserOption(data, "user")
	if user == "" {
		respondText(s, i, "Specify a person.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	amount, err := svc.TotalOwedBy(ctx, user)
	if err != nil {
		log.Printf("Owes query failed: %v", err)
		respondText(s, i, "Couldn't look that up right now.")
		return
	}

	respondText(s, i, fmt.Sprintf("%s owes %s in total.", mention(user), money.FormatUSD(amount)))
}

func HandleOwed(s *discordgo.Session, i *discordgo.InteractionCreate, svc *debts.Service) {
	data := i.ApplicationCommandData()
	user := getUserOption(data, "user")
	if user == "" {
		respondText(s, i, "Specify a person.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	amount, err := svc.TotalOwedTo(ctx, user)
	if err != nil {
		log.Printf("Owed query failed: %v", err)
		respondText(s, i, "Couldn't look that up right now.")
		return
	}

	respondText(s, i, fmt.Sprintf("%s is owed %s in total.", mention(user), money.FormatUSD(amount)))
}
