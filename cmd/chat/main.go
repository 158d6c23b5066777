// Command chat is a terminal client for the chat streaming API. It prints
// assistant text as it streams and keeps the conversation identifier across
// turns, so a session survives multiple prompts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/leofalp/chatstream/pkg/client"
)

func main() {
	baseURL := flag.String("server", "http://localhost:8080", "chatstream server base URL")
	provider := flag.String("provider", "", "provider override (openai, gemini, claude)")
	chatID := flag.String("chat", "", "resume an existing conversation by id")
	token := flag.String("token", "", "bearer token for authentication")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chatClient := client.New(*baseURL)
	if *token != "" {
		chatClient.WithToken(*token)
	}

	if providers, err := chatClient.ListProviders(ctx); err == nil {
		fmt.Printf("server default provider: %s (available: %s)\n",
			providers.Default, strings.Join(providers.Available, ", "))
	}

	currentChat := *chatID
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "/quit" || message == "/exit" {
			break
		}

		// The decoder reports running totals; print only the new tail of
		// each one so output appears as a continuous stream.
		printed := 0
		turn, err := chatClient.Send(ctx, client.SendOptions{
			ChatID:   currentChat,
			Message:  message,
			Provider: *provider,
			OnContent: func(total string) {
				fmt.Print(total[printed:])
				printed = len(total)
			},
		})
		fmt.Println()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		if currentChat == "" && turn.ChatID != "" {
			currentChat = turn.ChatID
			fmt.Printf("(conversation %s)\n", currentChat)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		os.Exit(1)
	}
}
