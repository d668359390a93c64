package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/ykitano/splitbot/internal/ledger"
	"github.com/ykitano/splitbot/internal/money"
)

// HandleDue records a manual debt: the invoker owes the named creditor.
func HandleDue(s *discordgo.Session, i *discordgo.InteractionCreate, led *ledger.Ledger) {
	data := i.ApplicationCommandData()

	debtor := invokerID(i)
	creditor := getUserOption(data, "creditor")
	item := getStringOption(data.Options, "item")
	priceOpt := getStringOption(data.Options, "price")
	if debtor == "" || creditor == "" || item == nil || priceOpt == nil {
		respondText(s, i, "Specify who you owe, for what, and how much.")
		return
	}
	if debtor == creditor {
		respondText(s, i, "You can't owe yourself.")
		return
	}

	price, err := money.Parse(*priceOpt)
	if err != nil {
		respondText(s, i, fmt.Sprintf("That price doesn't parse: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rec := ledger.Record{
		Debtor:        debtor,
		Creditor:      creditor,
		TransactionID: uuid.NewString(),
		Item:          *item,
		Price:         price,
	}
	if err := led.Put(ctx, rec); err != nil {
		log.Printf("Manual due failed: %v", err)
		respondText(s, i, "Couldn't record that right now.")
		return
	}

	respondText(s, i, fmt.Sprintf("Recorded: you owe %s %s for %s.",
		mention(creditor), money.FormatUSD(price), *item))
}

// HandleForgive clears debts owed to the invoker, either one transaction
// or everything from the debtor.
func HandleForgive(s *discordgo.Session, i *discordgo.InteractionCreate, led *ledger.Ledger) {
	data := i.ApplicationCommandData()

	creditor := invokerID(i)
	debtor := getUserOption(data, "debtor")
	if creditor == "" || debtor == "" {
		respondText(s, i, "Specify whose debt to clear.")
		return
	}

	transactionID := ""
	if v := getStringOption(data.Options, "transaction"); v != nil {
		transactionID = *v
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := led.Clear(ctx, debtor, creditor, transactionID); err != nil {
		log.Printf("Forgive failed: %v", err)
		respondText(s, i, "Couldn't clear that right now.")
		return
	}

	if transactionID == "" {
		respondText(s, i, fmt.Sprintf("Cleared everything %s owed you.", mention(debtor)))
	} else {
		respondText(s, i, fmt.Sprintf("Cleared transaction %s from %s.", transactionID, mention(debtor)))
	}
}
