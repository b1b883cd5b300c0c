// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/jeranaias/botdeck-tui/internal/util"
)

// View renders the current screen.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenLoading:
		body = m.viewLoading()
	case screenLogin:
		body = m.viewAuth()
	case screenBots:
		body = m.viewBots()
	case screenEditor:
		body = m.viewEditor()
	case screenChat:
		body = m.viewChat()
	}

	var sb strings.Builder
	sb.WriteString(m.viewHeader())
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	if m.notice != "" {
		style := m.theme.SuccessText
		if m.noticeErr {
			style = m.theme.ErrorBanner
		}
		sb.WriteString(style.Render(m.notice))
		sb.WriteString("\n")
	}
	sb.WriteString(m.viewStatus())
	return sb.String()
}

// =============================================================================
// SCREEN VIEWS
// =============================================================================

func (m *Model) viewHeader() string {
	m.header.Title = "botdeck"
	m.header.Subtitle = ""
	if m.screen == screenChat && m.session != nil {
		conv := m.session.Conversation()
		m.header.Title = conv.ChatbotName
		m.header.Subtitle = conv.Description
	}
	return m.header.View()
}

func (m *Model) viewStatus() string {
	m.status.Username = m.deps.Auth.Username()
	m.status.Chatbot = ""
	if m.session != nil && m.screen == screenChat {
		m.status.Chatbot = m.session.Conversation().ChatbotName
	}
	m.status.Busy = m.streaming || (m.session != nil && m.session.Busy())
	return m.status.View()
}

func (m *Model) viewLoading() string {
	return m.theme.Container.Render(m.theme.MutedText.Render("Checking session..."))
}

func (m *Model) viewAuth() string {
	var sb strings.Builder

	title := "Log in"
	hint := "enter to submit, ctrl+r to register instead"
	if m.registerMode {
		title = "Create account"
		hint = "enter to submit, ctrl+r to log in instead"
	}
	sb.WriteString(m.theme.ListTitle.Render(title))
	sb.WriteString("\n\n")

	labels := []string{"Username", "Password", "Confirm"}
	for i, input := range m.authInputs {
		sb.WriteString(m.theme.FieldLabel.Render(labels[i]))
		sb.WriteString(" ")
		sb.WriteString(input.View())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.MutedText.Render(hint))
	return m.theme.Container.Render(sb.String())
}

func (m *Model) viewBots() string {
	var sb strings.Builder
	sb.WriteString(m.theme.ListTitle.Render("Chatbots"))
	sb.WriteString("\n")

	if len(m.bots) == 0 {
		sb.WriteString(m.theme.MutedText.Render("No chatbots yet. Press n to create one."))
	}

	for i, bot := range m.bots {
		line := bot.Name
		if bot.Shared {
			line += " " + m.theme.MutedText.Render("(shared)")
		}
		if i == m.botCursor {
			sb.WriteString(m.theme.ListSelected.Render("> " + line))
		} else {
			sb.WriteString(m.theme.ListItem.Render(line))
		}
		sb.WriteString("\n")
		if desc := util.TruncateRunes(util.FirstLine(bot.Description), 70); desc != "" {
			sb.WriteString(m.theme.ListDesc.Render(desc))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.MutedText.Render(
		"enter chat  n new  e edit  d delete  r refresh  ctrl+l logout"))
	return m.theme.Container.Render(sb.String())
}

func (m *Model) viewEditor() string {
	f := m.editor
	if f == nil {
		return ""
	}

	var sb strings.Builder
	title := "New chatbot"
	if f.editing() {
		title = "Edit " + f.existing.Name
	}
	sb.WriteString(m.theme.ListTitle.Render(title))
	sb.WriteString("\n\n")

	for i := range f.inputs {
		sb.WriteString(m.theme.FieldLabel.Render(fieldLabels[i]))
		sb.WriteString(" ")
		sb.WriteString(f.inputs[i].View())
		sb.WriteString("\n")
	}

	shared := "no"
	if f.shared {
		shared = "yes"
	}
	sb.WriteString(m.theme.FieldLabel.Render("Shared"))
	sb.WriteString(" " + shared + " " + m.theme.MutedText.Render("(ctrl+o)"))
	sb.WriteString("\n")

	if f.editing() && f.existing.FilePath != "" {
		remove := "keep"
		if f.removeFile {
			remove = "remove"
		}
		sb.WriteString(m.theme.FieldLabel.Render("Stored file"))
		sb.WriteString(fmt.Sprintf(" %s, %s %s\n", f.existing.FilePath, remove, m.theme.MutedText.Render("(ctrl+x)")))
	}

	if f.errText != "" {
		sb.WriteString("\n")
		sb.WriteString(m.theme.FieldError.Render(f.errText))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.MutedText.Render("ctrl+s save  esc cancel  tab next field"))
	return m.theme.Container.Render(sb.String())
}

func (m *Model) viewChat() string {
	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	if s := m.spinner.View(); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	sb.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	return sb.String()
}
