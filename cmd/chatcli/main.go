package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/client"
	"github.com/batsdk/wowclass-enlace/domain/chat"
	"github.com/batsdk/wowclass-enlace/internal"
	"github.com/batsdk/wowclass-enlace/mirror"
	"github.com/batsdk/wowclass-enlace/projection"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the terminal client.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:8080"`
	ClassID   string `env:"CHAT_CLASS_ID,required=true"`
	UserID    string `env:"CHAT_USER_ID,required=true"`
	UserName  string `env:"CHAT_USER_NAME,default=Unknown"`

	Identifier string `env:"CHAT_IDENTIFIER,required=true"`
	Password   string `env:"CHAT_PASSWORD,required=true"`
	Role       string `env:"CHAT_ROLE,default=student"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/mirror"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=./data/index"`
	InspectPort    *int   `env:"INSPECT_PORT"`

	SearchLimit int    `env:"SEARCH_LIMIT,default=20"`
	LogLevel    string `env:"LOG_LEVEL,required=true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Exchange credentials for the token cookie.
	token, err := login(ctx, config)
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}

	// 3. Local mirror. A failure here degrades to a memory-only session
	// instead of blocking the chat.
	store, cleanup := openMirror(config, log)
	defer cleanup()

	// 4. View + agent wiring.
	agent, err := client.NewAgent(config.ServerURL, config.ClassID, config.UserID,
		config.UserName, token, log)
	if err != nil {
		return exitConfig, err
	}

	view := projection.NewView(chat.RoomID(config.ClassID), config.UserID,
		config.UserName, store, agent, log)
	agent.OnMessage(func(msg chat.Message) {
		view.HandleMessage(msg)
		printMessage(msg, config.UserID)
	})
	agent.OnTyping(func(sig chat.TypingSignal) {
		view.HandleTyping(sig)
		printTyping(view.TypingUsers())
	})
	agent.OnStatus(func(status string) {
		view.HandleStatus(status)
		printStatus(status)
	})

	if err := view.Restore(); err != nil {
		log.Warn("Could not restore mirrored history", "error", err)
	}
	renderHistory(view.Messages())

	if err := agent.Connect(); err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer agent.Disconnect()

	color.Grayln("Type a message and press enter. /search <term> to recall, /history to reprint, /quit to leave.")

	// 6. Input loop.
	lines := readLines(ctx)
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			log.Info("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if done, err := handleLine(ctx, line, view, store, config); err != nil {
				color.Redln(err.Error())
			} else if done {
				return exitOK, nil
			}
		}
	}
}

func handleLine(ctx context.Context, line string, view *projection.View,
	store mirror.IStore, config Config) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case line == "/history":
		renderHistory(view.Messages())
		return false, nil
	case strings.HasPrefix(line, "/search "):
		term := strings.TrimSpace(strings.TrimPrefix(line, "/search "))
		hits, err := store.Search(ctx, chat.RoomID(config.ClassID), term, config.SearchLimit)
		if err != nil {
			return false, fmt.Errorf("search failed: %w", err)
		}
		renderHistory(hits)
		return false, nil
	default:
		_ = view.Typing()
		if err := view.Send(line); err != nil {
			return false, fmt.Errorf("send failed: %w", err)
		}
		return false, nil
	}
}

// login posts the credentials and extracts the token cookie the relay
// expects on the websocket handshake.
func login(ctx context.Context, config Config) (string, error) {
	body := fmt.Sprintf(`{"identifier":%q,"password":%q,"role":%q}`,
		config.Identifier, config.Password, config.Role)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		config.ServerURL+"/api/auth/login", bytes.NewBufferString(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login refused with status %d", resp.StatusCode)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("no %s cookie in login response", auth.CookieName)
}

// openMirror opens the durable mirror, falling back to the disabled
// store when local storage is unavailable.
func openMirror(config Config, log *slog.Logger) (mirror.IStore, func()) {
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None)
	db, err := badger.Open(opts)
	if err != nil {
		log.Warn("Mirror disabled, running memory-only", "error", err)
		return mirror.Noop{}, func() {}
	}

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		log.Warn("Mirror disabled, running memory-only", "error", err)
		_ = db.Close()
		return mirror.Noop{}, func() {}
	}

	if config.InspectPort != nil {
		internal.StartInspector(db, *config.InspectPort, func() map[string]any {
			return map[string]any{
				"Mode": "chatcli mirror",
				"Time": time.Now().Format(time.RFC822),
			}
		})
		log.Info("Mirror inspector available",
			"url", fmt.Sprintf("http://localhost:%d/inspect", *config.InspectPort))
	}

	store := mirror.NewStore(db, writer, logs.GetLoggerFromString(config.LogLevel))
	return store, func() {
		_ = writer.Close()
		_ = db.Close()
	}
}

func readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func renderHistory(records []mirror.Record) {
	if len(records) == 0 {
		color.Grayln("(no messages)")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Sender", "Message", "Synced"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, rec := range records {
		at := chat.ParseTimestamp(rec.CreatedAt).Local().Format(time.TimeOnly)
		table.Append([]string{at, rec.SenderName, rec.Content, fmt.Sprintf("%t", rec.Synced)})
	}
	table.Render()
}

func printMessage(msg chat.Message, ownUserID string) {
	at := chat.ParseTimestamp(msg.CreatedAt).Local().Format(time.TimeOnly)
	sender := color.Green.Render(msg.SenderName)
	if msg.SenderID == ownUserID {
		sender = color.Cyan.Render(msg.SenderName)
	}
	fmt.Printf("[%s] %s: %s\n", at, sender, msg.Content)
}

func printTyping(users []string) {
	if len(users) == 0 {
		return
	}
	color.Grayln(strings.Join(users, ", ") + " typing...")
}

func printStatus(status string) {
	switch status {
	case client.StatusConnected:
		color.Greenln("-- connected --")
	default:
		color.Yellowln("-- disconnected --")
	}
}
