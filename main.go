package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/app"
	"sanee/messenger/internal/apperrors"
	"sanee/messenger/internal/config"
	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
	"sanee/messenger/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogProduction); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	sessionPath := cfg.SessionFile
	if sessionPath == "" {
		sessionPath, err = session.DefaultPath()
		if err != nil {
			log.Fatalf("Failed to resolve session path: %v", err)
		}
	}
	sess, err := session.Init(sessionPath)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	// SANEE_TOKEN overrides the stored token; handy against the stub backend.
	if token := os.Getenv("SANEE_TOKEN"); token != "" {
		if err := sess.SetToken(token); err != nil {
			log.Fatalf("Failed to store token: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, sess, os.Stdout)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeUnauthenticated) {
			// Login is an external collaborator; there is nothing to retry here.
			fmt.Println("Not logged in. Set SANEE_TOKEN or log in via the web app, then restart.")
			os.Exit(1)
		}
		log.Fatalf("Failed to start: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		log.Printf("Sidebar refresh failed (will keep polling): %v", err)
	}
	defer a.Stop()

	fmt.Printf("Logged in as %s (#%d). Type /help for commands.\n", a.Me().Name, a.Me().ID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		fmt.Println("\nShutting down...")
		a.Stop()
		logger.Sync()
		os.Exit(0)
	}()

	repl(ctx, a)
}

func repl(ctx context.Context, a *app.App) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			// Bare text goes straight into the composer and out.
			a.Composer().SetDraft(line)
			send(ctx, a)
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "/help":
			printHelp()
		case "/list":
			printConversations(a, a.Conversations().Summaries())
		case "/find":
			printConversations(a, a.Conversations().Filter(strings.TrimPrefix(line, "/find ")))
		case "/open":
			cmdOpen(ctx, a, fields)
		case "/send":
			a.Composer().SetDraft(strings.TrimPrefix(line, "/send "))
			send(ctx, a)
		case "/file":
			if len(fields) < 2 {
				fmt.Println("usage: /file <path>")
				continue
			}
			a.Composer().Attach(fields[1])
			send(ctx, a)
		case "/del":
			cmdDelete(ctx, a, fields)
		case "/order":
			cmdOrder(ctx, a, fields, line)
		case "/accept":
			cmdOrderAction(ctx, a, fields, a.Orders().Accept)
		case "/reject":
			cmdOrderAction(ctx, a, fields, a.Orders().Reject)
		case "/msgs":
			printMessages(a)
		case "/focus":
			a.SetFocused(true)
		case "/blur":
			a.SetFocused(false)
		case "/logout":
			if err := a.Logout(); err != nil {
				fmt.Printf("logout failed: %v\n", err)
			}
			return
		case "/quit":
			return
		default:
			fmt.Printf("unknown command %s (try /help)\n", fields[0])
		}
	}
}

func send(ctx context.Context, a *app.App) {
	peer := a.Syncer().PeerID()
	if peer == 0 {
		fmt.Println("open a conversation first (/open <user-id>)")
		return
	}
	if _, err := a.Composer().Send(ctx, peer); err != nil {
		a.Error(apperrors.MessageOf(err))
		return
	}
	printMessages(a)
}

func cmdOpen(ctx context.Context, a *app.App, fields []string) {
	if len(fields) < 2 {
		fmt.Println("usage: /open <user-id>")
		return
	}
	peer, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Println("invalid user id")
		return
	}
	if err := a.OpenConversation(ctx, peer); err != nil {
		a.Error("Could not load the conversation. Reconnecting...")
		return
	}
	printMessages(a)
}

func cmdDelete(ctx context.Context, a *app.App, fields []string) {
	if len(fields) < 2 {
		fmt.Println("usage: /del <message-id>")
		return
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Println("invalid message id")
		return
	}
	if err := a.Composer().Delete(ctx, id); err != nil {
		a.Error(apperrors.MessageOf(err))
		return
	}
	printMessages(a)
}

func cmdOrder(ctx context.Context, a *app.App, fields []string, line string) {
	if len(fields) < 4 {
		fmt.Printf("usage: /order <service-id> <amount> <expiry:%s> [note]\n", strings.Join(models.ExpiryChoices(), "|"))
		return
	}
	peer := a.Syncer().PeerID()
	if peer == 0 {
		fmt.Println("open a conversation first")
		return
	}
	serviceID, err1 := strconv.ParseInt(fields[1], 10, 64)
	amount, err2 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil {
		fmt.Println("invalid service id or amount")
		return
	}
	note := ""
	if len(fields) > 4 {
		note = strings.Join(fields[4:], " ")
	}
	req := api.CreateOrderRequest{ServiceID: serviceID, Amount: amount, ExpiryChoice: fields[3], Note: note}
	if _, err := a.Orders().Propose(ctx, peer, req); err != nil {
		return // flow already toasted
	}
	printMessages(a)
}

func cmdOrderAction(ctx context.Context, a *app.App, fields []string, action func(context.Context, models.Message) error) {
	if len(fields) < 2 {
		fmt.Println("usage: /accept|/reject <message-id>")
		return
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Println("invalid message id")
		return
	}
	msg, ok := a.Store().Get(id)
	if !ok {
		fmt.Println("no such message in this conversation")
		return
	}
	if err := action(ctx, msg); err != nil {
		return // flow already toasted
	}
	printMessages(a)
}

func printConversations(a *app.App, summaries []models.ConversationSummary) {
	if len(summaries) == 0 {
		fmt.Println("no conversations")
		return
	}
	for _, s := range summaries {
		marker := " "
		if a.Conversations().Unread(s.User.ID) > 0 {
			marker = "*"
		}
		online := ""
		if s.User.Online {
			online = " (online)"
		}
		fmt.Printf("%s #%d %s%s: %s\n", marker, s.User.ID, s.User.Name, online, s.LastMessage)
	}
}

func printMessages(a *app.App) {
	status := "connected"
	if !a.Syncer().Connected() {
		status = "disconnected"
	}
	fmt.Printf("--- conversation with #%d [%s] ---\n", a.Syncer().PeerID(), status)
	for _, m := range a.Store().Messages() {
		who := "them"
		if m.SenderID == a.Me().ID {
			who = "me"
		}
		switch m.Shape() {
		case models.ShapeOrder:
			meta := m.Order()
			fmt.Printf("%4d %s: [order #%d: %s, $%.2f, %s] (%s)\n", m.ID, who, meta.OrderID, meta.ServiceTitle, meta.Amount, models.ExpiryLabel(meta.ExpiryChoice), meta.Status)
		case models.ShapeAttachment:
			fmt.Printf("%4d %s: [file] %s\n", m.ID, who, m.Attachment)
		default:
			fmt.Printf("%4d %s: %s\n", m.ID, who, m.DisplayBody())
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  /list                 show conversations (* = unread)
  /find <text>          filter conversations
  /open <user-id>       open a conversation
  <text> or /send ...   send a text message
  /file <path>          send a file attachment
  /del <message-id>     delete a recent message of yours
  /order <service-id> <amount> <expiry> [note]   propose a custom order
  /accept <message-id>  accept a pending order
  /reject <message-id>  reject a pending order
  /msgs                 reprint the open conversation
  /focus, /blur         simulate window focus (notifications fire when blurred)
  /logout, /quit`)
}
