// chat.go - Interactive chat command handler for the botdeck CLI.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Command: chat
// Short:   Start an interactive chat session with a chatbot
//
// Examples:
//   botdeck chat                Chat with the configured default chatbot
//   botdeck chat helper         Chat with a specific chatbot
//   botdeck chat helper --sync  Disable streaming for this session
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Start a fresh conversation
//   /status, /s         Show session statistics
//   /history            Show the transcript so far
//   /export [txt|md]    Export the transcript to a file
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the current reply
//   Ctrl+D              Exit chat
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/botdeck-tui/internal/chat"
	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/export"
	"github.com/jeranaias/botdeck-tui/internal/history"
	"github.com/jeranaias/botdeck-tui/internal/model"
	"github.com/jeranaias/botdeck-tui/internal/storage"
	"github.com/jeranaias/botdeck-tui/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer for chatbot replies.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text when the renderer cannot initialize
		markdownRenderer = nil
	}
}

// renderMarkdown renders a reply for terminal display, returning the
// original text when rendering is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with private permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// chatRun holds the state for one interactive chat session.
type chatRun struct {
	app      *App
	session  *chat.Session
	input    *ChatCLI
	store    *storage.Store
	usage    *history.Log
	markdown bool
	stream   bool

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	exchanges  int
	started    time.Time
}

// setCancel installs (or clears) the cancel hook for the in-flight reply.
func (r *chatRun) setCancel(fn context.CancelFunc) {
	r.mu.Lock()
	r.cancelFunc = fn
	r.mu.Unlock()
}

// cancelCurrent aborts the in-flight reply, if any.
func (r *chatRun) cancelCurrent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelFunc == nil {
		return false
	}
	r.cancelFunc()
	r.cancelFunc = nil
	return true
}

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// HandleChat runs the interactive chat REPL.
func HandleChat(app *App, args *ArgParser) error {
	ctx := context.Background()
	if err := app.RequireAuth(ctx); err != nil {
		return err
	}

	chatbotName := args.Arg(0)
	if chatbotName == "" {
		chatbotName = app.Config.DefaultChatbot
	}
	if chatbotName == "" {
		return fmt.Errorf("no chatbot given; pass a name or set default_chatbot in the config")
	}

	session, err := chat.Start(ctx, app.Client, app.Auth.Username(), chatbotName)
	if err != nil {
		return fmt.Errorf("%s", chat.UserMessage(err))
	}

	run := &chatRun{
		app:      app,
		session:  session,
		input:    NewChatCLI(),
		markdown: !args.BoolFlag("no-markdown") && IsStdoutTTY(),
		stream:   app.Config.Streaming && !args.BoolFlag("sync"),
		started:  time.Now(),
	}
	defer run.input.Close()

	if dir, err := config.TranscriptsDir(); err == nil {
		run.store = storage.NewStore(dir)
	}
	if app.Config.HistoryEnabled {
		if path, err := config.HistoryPath(); err == nil {
			if log, err := history.Open(path); err == nil {
				run.usage = log
				defer run.usage.Close()
			}
		}
	}

	printWelcome(run)

	// First Ctrl+C cancels the in-flight reply rather than the process
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if run.cancelCurrent() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := run.input.ReadInput(TitleStyle.MarginBottom(0).Render(chatbotName+"> "))
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) and EOF (Ctrl+D) both exit
			fmt.Println()
			finishChat(run)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cont, err := handleSlashCommand(run, input)
			if err != nil {
				PrintError("%v", err)
			}
			if !cont {
				finishChat(run)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			finishChat(run)
			return nil
		}

		if err := processMessage(run, input); err != nil {
			PrintError("%v", err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends one message and prints the reply.
func processMessage(run *chatRun, input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	run.setCancel(cancel)
	defer func() {
		cancel()
		run.setCancel(nil)
	}()

	start := time.Now()

	if run.stream {
		// Tokens print as they arrive; the markdown re-render happens
		// on the complete reply afterwards
		turn, err := run.session.SendStream(ctx, input, func(token string) {
			fmt.Print(token)
		})
		fmt.Println()
		if err != nil {
			// The synthetic error turn never streams, so print it here
			fmt.Println(turn.Text)
		} else if run.markdown && strings.TrimSpace(turn.Text) != "" {
			fmt.Print(renderMarkdown(turn.Text))
		}
	} else {
		turn, _ := run.session.Send(ctx, input)
		if run.markdown {
			fmt.Print(renderMarkdown(turn.Text))
		} else {
			fmt.Println(turn.Text)
		}
	}

	// Send errors are already in the transcript as synthetic turns; the
	// printed turn carries them, so only bookkeeping remains
	run.exchanges++
	recordExchange(run, input, time.Since(start))
	return nil
}

// recordExchange appends one row to the local usage log.
func recordExchange(run *chatRun, prompt string, took time.Duration) {
	if run.usage == nil {
		return
	}
	conv := run.session.Conversation()
	_ = run.usage.Record(history.Entry{
		ChatbotName:    conv.ChatbotName,
		ConversationID: conv.SessionID,
		PromptPreview:  util.TruncateRunes(util.FirstLine(prompt), 60),
		Duration:       took,
		Streamed:       run.stream,
	})
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand executes an interactive command. The bool result
// is false when the REPL should exit.
func handleSlashCommand(run *chatRun, input string) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/help", "/h":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		conv := run.session.Conversation()
		fresh, err := chat.Start(context.Background(), run.app.Client, conv.Username, conv.ChatbotName)
		if err != nil {
			return true, fmt.Errorf("%s", chat.UserMessage(err))
		}
		saveTranscript(run)
		run.session = fresh
		fmt.Println(MutedStyle.Render("Started a fresh conversation."))
		return true, nil

	case "/status", "/s":
		printStatus(run)
		return true, nil

	case "/history":
		printTranscript(run)
		return true, nil

	case "/export":
		format := "md"
		if len(fields) > 1 {
			format = fields[1]
		}
		path, err := exportTranscript(run, format)
		if err != nil {
			return true, err
		}
		fmt.Printf("%s exported to %s\n", SuccessStyle.Render("[OK]"), path)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
}

// exportTranscript writes the current conversation to a file.
func exportTranscript(run *chatRun, format string) (string, error) {
	var exporter export.Exporter
	switch format {
	case "txt", "text":
		exporter = export.NewTextExporter()
	case "md", "markdown":
		exporter = export.NewMarkdownExporter(&export.Options{IncludeMetadata: true})
	default:
		return "", fmt.Errorf("unknown export format %q (want txt or md)", format)
	}

	opts := export.DefaultOptions()
	if run.app.Config.ExportDir != "" {
		opts.OutputDir = run.app.Config.ExportDir
	}
	opts.IncludeMetadata = true
	return export.ExportToFile(run.session.Conversation(), exporter, opts)
}

// saveTranscript persists the conversation locally for `botdeck export`.
func saveTranscript(run *chatRun) {
	if run.store == nil {
		return
	}
	conv := run.session.Conversation()
	if conv.Len() == 0 {
		return
	}
	if err := run.store.Save(conv); err != nil {
		PrintWarning("could not save transcript: %v", err)
	}
}

// finishChat saves state and prints the exit summary.
func finishChat(run *chatRun) {
	saveTranscript(run)
	printExitSummary(run)
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(run *chatRun) {
	conv := run.session.Conversation()
	fmt.Println(TitleStyle.Render("botdeck chat"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Chatbot"), ValueStyle.Render(conv.ChatbotName))
	if conv.Description != "" {
		fmt.Printf("%s %s\n", LabelStyle.Render("About"), MutedStyle.Render(util.FirstLine(conv.Description)))
	}
	mode := "streaming"
	if !run.stream {
		mode = "sync"
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("Mode"), MutedStyle.Render(mode))
	fmt.Println(MutedStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()
}

func printChatHelp() {
	fmt.Println(TitleStyle.Render("Commands"))
	fmt.Println("  /help, /h          Show this help")
	fmt.Println("  /clear, /c         Start a fresh conversation")
	fmt.Println("  /status, /s        Show session statistics")
	fmt.Println("  /history           Show the transcript so far")
	fmt.Println("  /export [txt|md]   Export the transcript")
	fmt.Println("  /quit, /q          Exit chat")
}

func printStatus(run *chatRun) {
	conv := run.session.Conversation()
	fmt.Println(TitleStyle.Render("Session"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Chatbot"), ValueStyle.Render(conv.ChatbotName))
	fmt.Printf("%s %s\n", LabelStyle.Render("Conversation"), MutedStyle.Render(conv.SessionID))
	fmt.Printf("%s %d\n", LabelStyle.Render("Turns"), conv.Len())
	fmt.Printf("%s %s\n", LabelStyle.Render("Elapsed"), time.Since(run.started).Round(time.Second))
}

func printTranscript(run *chatRun) {
	for _, turn := range run.session.Turns() {
		speaker := "You"
		if turn.Speaker == model.SpeakerChatbot {
			speaker = run.session.Conversation().ChatbotName
		}
		fmt.Printf("%s %s\n", LabelStyle.Render(speaker+":"), turn.Text)
	}
}

func printExitSummary(run *chatRun) {
	if run.exchanges == 0 {
		return
	}
	fmt.Println()
	fmt.Println(TitleStyle.Render("Session summary"))
	fmt.Printf("%s %d\n", LabelStyle.Render("Exchanges"), run.exchanges)
	fmt.Printf("%s %s\n", LabelStyle.Render("Duration"), time.Since(run.started).Round(time.Second))
}
