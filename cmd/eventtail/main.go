// Tails the durable chat session log from NATS and prints each event.
// Useful for watching what the save pipeline actually commits:
//
//	go run cmd/eventtail/main.go -subject "events.CHAT_MESSAGE_APPENDED"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-roleplay-be/internal/config"
	"ai-roleplay-be/pkg/events"
	pkgNats "ai-roleplay-be/pkg/nats"

	"github.com/fatih/color"
)

func main() {
	subject := flag.String("subject", "events.>", "subject filter within the EVENTS stream")
	durable := flag.String("durable", "eventtail", "durable consumer name (position survives restarts)")
	flag.Parse()

	cfg := config.Load()

	sub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("NATS connect failed: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(*subject, *durable, func(ctx context.Context, event events.Event) error {
		pretty, _ := json.MarshalIndent(event.Payload(), "", "  ")
		switch event.EventType() {
		case events.TypeChatMessageAppended:
			color.Green("%s", event.EventType())
		case events.TypeChatSessionDeleted:
			color.Red("%s", event.EventType())
		default:
			color.Yellow("%s", event.EventType())
		}
		fmt.Println(string(pretty))
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe failed: %v", err)
	}

	color.Cyan("Tailing %s (durable %s), Ctrl+C to stop", *subject, *durable)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
