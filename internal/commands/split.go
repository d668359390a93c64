package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/aliases"
	"github.com/ykitano/splitbot/internal/ledger"
	"github.com/ykitano/splitbot/internal/money"
	"github.com/ykitano/splitbot/internal/receipt"
	"github.com/ykitano/splitbot/internal/reconcile"
)

// splitTimeout bounds the whole extract/reconcile/write flow for one
// interaction.
const splitTimeout = 5 * time.Minute

// splitLabel is the item text recorded for allocation shares.
const splitLabel = "receipt split"

func HandleSplit(s *discordgo.Session, i *discordgo.InteractionCreate,
	vision receipt.VisionCompleter, engine *reconcile.Engine,
	dir *aliases.Directory, led *ledger.Ledger) {

	data := i.ApplicationCommandData()

	imageURL := getAttachmentURL(data, "image")
	if imageURL == "" {
		respondText(s, i, "Please attach a receipt image.")
		return
	}

	participantsOpt := getStringOption(data.Options, "participants")
	var participants []string
	if participantsOpt != nil {
		participants = parseMentionIDs(*participantsOpt)
	}
	creditor := invokerID(i)
	if creditor == "" {
		respondText(s, i, "Could not identify you.")
		return
	}
	if !contains(participants, creditor) {
		participants = append(participants, creditor)
	}
	if len(participants) < 2 {
		respondText(s, i, "Mention at least one other participant.")
		return
	}

	notes := ""
	if v := getStringOption(data.Options, "notes"); v != nil {
		notes = *v
	}
	tip := ""
	if v := getStringOption(data.Options, "tip"); v != nil {
		tip = *v
	}

	// Vision plus the propose/verify loop is slow; acknowledge now and
	// answer with a followup.
	if err := respondDeferred(s, i); err != nil {
		log.Printf("Failed to defer split interaction: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), splitTimeout)
	defer cancel()

	items, err := receipt.Extract(ctx, vision, imageURL)
	if err != nil {
		if errors.Is(err, receipt.ErrExtractionFailed) {
			followupText(s, i, "I couldn't read that receipt. Try a clearer photo.")
		} else {
			log.Printf("Receipt extraction failed: %v", err)
			followupText(s, i, "Something went wrong reading the receipt.")
		}
		return
	}

	index, err := dir.Resolve(ctx, i.GuildID)
	if err != nil {
		// Missing aliases are survivable; the engine falls back to
		// placeholders.
		log.Printf("Failed to resolve aliases for guild %s: %v", i.GuildID, err)
		index = nil
	}

	allocation, err := engine.Reconcile(ctx, reconcile.Request{
		Items:        receipt.ItemMap(items),
		Participants: participants,
		Notes:        notes,
		Tip:          tip,
		AliasIndex:   index,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrReconciliationFailed) {
			followupText(s, i, "I couldn't settle on a consistent split for this receipt. "+
				"Nothing was recorded; try simpler notes.")
		} else {
			log.Printf("Reconciliation failed: %v", err)
			followupText(s, i, fmt.Sprintf("Couldn't split the bill: %v", err))
		}
		return
	}

	transactionID := uuid.NewString()
	if err := led.PutAllocation(ctx, creditor, transactionID, splitLabel, allocation); err != nil {
		log.Printf("Failed to write allocation: %v", err)
		followupText(s, i, "The split converged but recording it failed. Nothing was saved.")
		return
	}

	followupText(s, i, formatSplit(creditor, items, allocation))
}

func formatSplit(creditor string, items []receipt.LineItem, allocation map[string]decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Receipt total %s, split as:\n", money.FormatUSD(receipt.Total(items)))

	ids := make([]string, 0, len(allocation))
	for id := range allocation {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "%s owes %s %s\n", displayName(id), mention(creditor), money.FormatUSD(allocation[id]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func displayName(id string) string {
	if name, ok := strings.CutPrefix(id, reconcile.UnresolvedPrefix); ok {
		return name + " (no alias set)"
	}
	return mention(id)
}

func mention(id string) string {
	return "<@" + id + ">"
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
