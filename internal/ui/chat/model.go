// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/auth"
	chatcore "github.com/jeranaias/botdeck-tui/internal/chat"
	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/history"
	"github.com/jeranaias/botdeck-tui/internal/model"
	"github.com/jeranaias/botdeck-tui/internal/registry"
	"github.com/jeranaias/botdeck-tui/internal/storage"
	"github.com/jeranaias/botdeck-tui/internal/ui/components"
	"github.com/jeranaias/botdeck-tui/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

// screen identifies which view the model is showing.
type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenBots
	screenEditor
	screenChat
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps carries the wiring the TUI runs on. Store and Usage may be nil;
// the affected features quietly disable themselves.
type Deps struct {
	Config   *config.Config
	Client   *api.Client
	Auth     *auth.Manager
	Registry *registry.Registry
	Store    *storage.Store
	Usage    *history.Log
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model for the botdeck TUI.
type Model struct {
	deps  Deps
	theme *styles.Theme
	keys  KeyMap

	screen screen
	width  int
	height int

	// Components
	header   *components.Header
	status   *components.StatusBar
	spinner  components.Spinner
	viewport viewport.Model

	// Login / register form
	authInputs   []textinput.Model
	authFocus    int
	registerMode bool

	// Chatbot list
	bots      []model.Chatbot
	botCursor int

	// Editor
	editor *botForm

	// Conversation
	session   *chatcore.Session
	turnList  *components.TurnList
	input     textinput.Model
	runner    *StreamRunner
	streaming bool
	live      string
	sendStart time.Time

	// Transient banner
	notice    string
	noticeErr bool
}

// New builds the TUI model.
func New(deps Deps) *Model {
	theme := styles.NewTheme(deps.Config.Theme)

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Prompt = "> "

	m := &Model{
		deps:     deps,
		theme:    theme,
		keys:     DefaultKeyMap(),
		screen:   screenLoading,
		header:   components.NewHeader(theme),
		status:   components.NewStatusBar(theme),
		spinner:  components.NewSpinner("Thinking"),
		viewport: viewport.New(80, 20),
		input:    input,
	}
	m.initAuthInputs(false)
	return m
}

// Init starts the session bootstrap.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.bootstrapCmd(), textinput.Blink)
}

// initAuthInputs (re)builds the login or register form fields.
func (m *Model) initAuthInputs(register bool) {
	count := 2
	if register {
		count = 3
	}

	inputs := make([]textinput.Model, count)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 128
		switch i {
		case 0:
			ti.Placeholder = "username"
			ti.Focus()
		case 1:
			ti.Placeholder = "password"
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		case 2:
			ti.Placeholder = "confirm password"
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}

	m.authInputs = inputs
	m.authFocus = 0
	m.registerMode = register
}

// selectedBot returns the chatbot under the cursor.
func (m *Model) selectedBot() (model.Chatbot, bool) {
	if m.botCursor < 0 || m.botCursor >= len(m.bots) {
		return model.Chatbot{}, false
	}
	return m.bots[m.botCursor], true
}

// chatbotLabel names the chatbot in transcripts and headers.
func (m *Model) chatbotLabel() string {
	if m.session != nil {
		return m.session.Conversation().ChatbotName
	}
	return "Chatbot"
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) bootstrapCmd() tea.Cmd {
	mgr := m.deps.Auth
	return func() tea.Msg {
		err := mgr.Bootstrap(context.Background())
		return BootstrapMsg{State: mgr.State(), Err: err}
	}
}

func (m *Model) loginCmd(username, password string) tea.Cmd {
	mgr := m.deps.Auth
	return func() tea.Msg {
		user, err := mgr.Login(context.Background(), username, password)
		return AuthResultMsg{User: user, Err: err}
	}
}

func (m *Model) registerCmd(username, password, confirm string) tea.Cmd {
	mgr := m.deps.Auth
	return func() tea.Msg {
		user, err := mgr.Register(context.Background(), username, password, confirm)
		return AuthResultMsg{User: user, Err: err}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	mgr := m.deps.Auth
	return func() tea.Msg {
		mgr.Logout(context.Background())
		return LogoutMsg{}
	}
}

func (m *Model) loadBotsCmd(force bool) tea.Cmd {
	reg := m.deps.Registry
	return func() tea.Msg {
		if err := reg.Load(context.Background(), force); err != nil {
			return BotsLoadedMsg{Err: err}
		}
		return BotsLoadedMsg{Bots: reg.List()}
	}
}

func (m *Model) startSessionCmd(chatbotName string) tea.Cmd {
	client := m.deps.Client
	username := m.deps.Auth.Username()
	return func() tea.Msg {
		session, err := chatcore.Start(context.Background(), client, username, chatbotName)
		return SessionStartedMsg{ChatbotName: chatbotName, Session: session, Err: err}
	}
}

func (m *Model) sendSyncCmd(session *chatcore.Session, text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := session.Send(context.Background(), text)
		return SendCompleteMsg{Turn: turn, Err: err}
	}
}

func (m *Model) saveBotCmd(bot *model.Chatbot) tea.Cmd {
	reg := m.deps.Registry
	return func() tea.Msg {
		saved, err := reg.Save(context.Background(), bot)
		return BotSavedMsg{Bot: saved, Err: err}
	}
}

func (m *Model) deleteBotCmd(id string) tea.Cmd {
	reg := m.deps.Registry
	return func() tea.Msg {
		err := reg.Delete(context.Background(), id)
		return BotDeletedMsg{ID: id, Err: err}
	}
}

func clearNoticeCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return ClearNoticeMsg{}
	})
}

// =============================================================================
// BOOKKEEPING
// =============================================================================

// saveTranscript persists the current conversation for later export.
func (m *Model) saveTranscript() {
	if m.deps.Store == nil || m.session == nil {
		return
	}
	conv := m.session.Conversation()
	if conv.Len() == 0 {
		return
	}
	_ = m.deps.Store.Save(conv)
}

// recordExchange logs one completed exchange locally.
func (m *Model) recordExchange(streamed bool) {
	if m.deps.Usage == nil || m.session == nil {
		return
	}
	conv := m.session.Conversation()
	prompt := ""
	turns := conv.Turns
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Speaker == model.SpeakerUser {
			prompt = turns[i].Text
			break
		}
	}
	_ = m.deps.Usage.Record(history.Entry{
		ChatbotName:    conv.ChatbotName,
		ConversationID: conv.SessionID,
		PromptPreview:  prompt,
		Duration:       time.Since(m.sendStart),
		Streamed:       streamed,
	})
}

// teardown releases the in-flight stream, if any. Called on quit so a
// dangling request cannot outlive the UI.
func (m *Model) teardown() {
	if m.runner != nil {
		m.runner.Cancel()
	}
	m.saveTranscript()
}

// errString formats session errors for the banner.
func errString(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := api.AsAPIError(err); ok {
		return apiErr.Message
	}
	return chatcore.UserMessage(err)
}
