package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ykitano/splitbot/internal/aliases"
	"github.com/ykitano/splitbot/internal/api"
	"github.com/ykitano/splitbot/internal/bot"
	"github.com/ykitano/splitbot/internal/config"
	"github.com/ykitano/splitbot/internal/debts"
	"github.com/ykitano/splitbot/internal/ledger"
	"github.com/ykitano/splitbot/internal/llm"
	"github.com/ykitano/splitbot/internal/reconcile"
	"github.com/ykitano/splitbot/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to the document store
	st, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer st.Close()

	// Run migrations
	if err := st.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Services
	led := ledger.New(st)
	dir := aliases.New(st)
	query := debts.New(led)
	client := llm.NewClient(cfg.OpenAIKey, cfg.OpenAIModel)
	engine := reconcile.NewEngine(client)

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, led, dir, query, engine, client)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	// Initialize API server
	apiServer := api.New(cfg, query, led)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
}
