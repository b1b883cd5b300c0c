// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck-tui/internal/auth"
	chatcore "github.com/jeranaias/botdeck-tui/internal/chat"
	"github.com/jeranaias/botdeck-tui/internal/export"
	"github.com/jeranaias/botdeck-tui/internal/ui/components"
)

// Update is the Bubble Tea update loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		// Quit is global; everything else depends on the screen
		if key.Matches(msg, m.keys.Quit) {
			m.teardown()
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case BootstrapMsg:
		if msg.State == auth.StateAuthenticated {
			m.screen = screenBots
			return m, m.loadBotsCmd(false)
		}
		m.screen = screenLogin
		return m, nil

	case AuthResultMsg:
		if msg.Err != nil {
			return m.showError(errString(msg.Err))
		}
		m.screen = screenBots
		return m, m.loadBotsCmd(true)

	case LogoutMsg:
		m.session = nil
		m.bots = nil
		m.initAuthInputs(false)
		m.screen = screenLogin
		return m, nil

	case BotsLoadedMsg:
		if msg.Err != nil {
			return m.showError(errString(msg.Err))
		}
		m.bots = msg.Bots
		if m.botCursor >= len(m.bots) {
			m.botCursor = 0
		}
		return m, nil

	case BotSavedMsg:
		if msg.Err != nil {
			// The editor stays open with the draft intact
			if m.editor != nil {
				m.editor.errText = errString(msg.Err)
			}
			return m, nil
		}
		m.editor = nil
		m.screen = screenBots
		m.notice = "saved " + msg.Bot.Name
		m.noticeErr = false
		return m, tea.Batch(m.loadBotsCmd(true), clearNoticeCmd())

	case BotDeletedMsg:
		if msg.Err != nil {
			return m.showError(errString(msg.Err))
		}
		return m, m.loadBotsCmd(true)

	case SessionStartedMsg:
		if msg.Err != nil {
			m.screen = screenBots
			return m.showError(chatcore.UserMessage(msg.Err))
		}
		m.session = msg.Session
		m.turnList = components.NewTurnList(m.theme, msg.ChatbotName)
		m.turnList.SetWidth(m.viewport.Width)
		m.live = ""
		m.input.Focus()
		m.screen = screenChat
		m.refreshViewport()
		return m, textinput.Blink

	case SendCompleteMsg:
		m.spinner.Stop()
		m.recordExchange(false)
		m.refreshViewport()
		if msg.Err != nil {
			// The synthetic error turn is already in the transcript
			return m, nil
		}
		return m, nil

	case StreamStartMsg:
		m.sendStart = msg.StartTime
		return m, nil

	case StreamTickMsg:
		if !m.streaming || m.runner == nil {
			return m, nil
		}
		if content, ok := m.runner.Buffer.Flush(); ok {
			m.live += content
			m.refreshViewport()
		}
		return m, streamTickCmd()

	case StreamCompleteMsg:
		m.streaming = false
		m.spinner.Stop()
		if m.runner != nil {
			m.runner.Cancel()
			m.runner = nil
		}
		m.live = ""
		m.recordExchange(true)
		m.refreshViewport()
		return m, nil

	case ConfigReloadedMsg:
		// Streaming and export settings apply immediately; the theme
		// applies on next start
		m.deps.Config = msg.Config
		return m, nil

	case ErrorMsg:
		return m.showError(msg.Err.Error())

	case ClearNoticeMsg:
		m.notice = ""
		return m, nil
	}

	// Spinner animation frames
	if cmd := m.spinner.Update(msg); cmd != nil {
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.header.SetWidth(msg.Width)
	m.status.SetWidth(msg.Width)

	// Header, status bar and input each take a line plus padding
	viewportHeight := msg.Height - 7
	if viewportHeight < 4 {
		viewportHeight = 4
	}
	m.viewport.Width = msg.Width - 2
	m.viewport.Height = viewportHeight
	m.input.Width = msg.Width - 6
	if m.turnList != nil {
		m.turnList.SetWidth(m.viewport.Width)
		m.refreshViewport()
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenLogin:
		return m.handleAuthKey(msg)
	case screenBots:
		return m.handleBotsKey(msg)
	case screenEditor:
		return m.handleEditorKey(msg)
	case screenChat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m *Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+r":
		// Toggle between login and register
		m.initAuthInputs(!m.registerMode)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.authFocus < len(m.authInputs)-1 {
			m.authFocus++
			m.focusAuthField()
			return m, nil
		}
		username := strings.TrimSpace(m.authInputs[0].Value())
		password := m.authInputs[1].Value()
		if m.registerMode {
			return m, m.registerCmd(username, password, m.authInputs[2].Value())
		}
		return m, m.loginCmd(username, password)

	case key.Matches(msg, m.keys.NextField):
		m.authFocus = (m.authFocus + 1) % len(m.authInputs)
		m.focusAuthField()
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.authFocus--
		if m.authFocus < 0 {
			m.authFocus = len(m.authInputs) - 1
		}
		m.focusAuthField()
		return m, nil
	}

	var cmd tea.Cmd
	m.authInputs[m.authFocus], cmd = m.authInputs[m.authFocus].Update(msg)
	return m, cmd
}

func (m *Model) focusAuthField() {
	for i := range m.authInputs {
		if i == m.authFocus {
			m.authInputs[i].Focus()
		} else {
			m.authInputs[i].Blur()
		}
	}
}

func (m *Model) handleBotsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.botCursor > 0 {
			m.botCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.botCursor < len(m.bots)-1 {
			m.botCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		bot, ok := m.selectedBot()
		if !ok {
			return m, nil
		}
		return m, m.startSessionCmd(bot.Name)

	case key.Matches(msg, m.keys.NewBot):
		m.editor = newBotForm(nil)
		m.screen = screenEditor
		return m, textinput.Blink

	case key.Matches(msg, m.keys.EditBot):
		bot, ok := m.selectedBot()
		if !ok {
			return m, nil
		}
		m.editor = newBotForm(&bot)
		m.screen = screenEditor
		return m, textinput.Blink

	case key.Matches(msg, m.keys.DeleteBot):
		bot, ok := m.selectedBot()
		if !ok {
			return m, nil
		}
		return m, m.deleteBotCmd(bot.ID)

	case msg.String() == "r":
		return m, m.loadBotsCmd(true)

	case msg.String() == "ctrl+l":
		return m, m.logoutCmd()
	}
	return m, nil
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.editor
	if f == nil {
		m.screen = screenBots
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editor = nil
		m.screen = screenBots
		return m, nil

	case msg.String() == "ctrl+s":
		bot := f.build(m.ownerID())
		if bot == nil {
			// Validation failed; errText is set and no request was made
			return m, nil
		}
		return m, m.saveBotCmd(bot)

	case msg.String() == "ctrl+o":
		f.shared = !f.shared
		return m, nil

	case msg.String() == "ctrl+x":
		f.removeFile = !f.removeFile
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		f.focusField(f.focus + 1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		f.focusField(f.focus - 1)
		return m, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.streaming && m.runner != nil {
			// Cancellation is guaranteed: the runner owns the context
			m.runner.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchBot):
		if m.streaming {
			return m, nil
		}
		m.saveTranscript()
		m.screen = screenBots
		return m, m.loadBotsCmd(false)

	case key.Matches(msg, m.keys.Export):
		return m.exportCurrent()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitMessage()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// CHAT ACTIONS
// =============================================================================

// submitMessage sends the input line, streamed or sync per config.
func (m *Model) submitMessage() (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.Busy() {
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.SetValue("")
	m.sendStart = time.Now()

	if m.deps.Config.Streaming {
		m.runner = StartStream(m.session, text)
		m.streaming = true
		m.refreshViewport()
		return m, tea.Batch(
			func() tea.Msg { return StreamStartMsg{StartTime: time.Now()} },
			m.runner.WaitCmd(),
			streamTickCmd(),
			m.spinner.Start(),
		)
	}

	m.refreshViewport()
	return m, tea.Batch(
		m.sendSyncCmd(m.session, text),
		m.spinner.Start(),
	)
}

// exportCurrent writes the conversation to a markdown file.
func (m *Model) exportCurrent() (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.Conversation().Len() == 0 {
		return m, nil
	}

	opts := export.DefaultOptions()
	if m.deps.Config.ExportDir != "" {
		opts.OutputDir = m.deps.Config.ExportDir
	}
	opts.IncludeMetadata = true

	path, err := export.ExportToFile(m.session.Conversation(), export.NewMarkdownExporter(opts), opts)
	if err != nil {
		return m.showError(err.Error())
	}
	m.notice = "exported to " + path
	m.noticeErr = false
	return m, clearNoticeCmd()
}

// refreshViewport re-renders the transcript into the viewport. The
// live tail comes from the conversation so partial replies survive a
// redraw.
func (m *Model) refreshViewport() {
	if m.session == nil || m.turnList == nil {
		return
	}

	// The flushed batches are the render source, so redraw rate stays
	// capped even when tokens arrive faster
	live := ""
	if m.streaming {
		live = m.live
	}
	m.viewport.SetContent(m.turnList.View(m.session.Turns(), live))
	m.viewport.GotoBottom()
}

// ownerID returns the authenticated user's id for new chatbots.
func (m *Model) ownerID() string {
	if u := m.deps.Auth.User(); u != nil {
		return u.ID
	}
	return ""
}

// showError sets the transient error banner.
func (m *Model) showError(text string) (tea.Model, tea.Cmd) {
	m.notice = text
	m.noticeErr = true
	return m, clearNoticeCmd()
}
