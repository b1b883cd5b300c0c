// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

// Editor field indices. Order matches the rendered form.
const (
	fieldName = iota
	fieldDescription
	fieldBehaviour
	fieldContext
	fieldFile
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Description", "Behaviour", "Context", "File"}

// botForm is the chatbot editor state. It works on a draft copy; the
// registry only sees the chatbot once validation passes and the save
// is confirmed.
type botForm struct {
	inputs     [fieldCount]textinput.Model
	focus      int
	shared     bool
	removeFile bool

	// existing is nil when creating a new chatbot
	existing *model.Chatbot
	errText  string
}

// newBotForm builds the editor, prefilled from an existing chatbot
// when editing.
func newBotForm(existing *model.Chatbot) *botForm {
	f := &botForm{existing: existing}

	for i := range f.inputs {
		ti := textinput.New()
		ti.CharLimit = 2000
		ti.Placeholder = strings.ToLower(fieldLabels[i])
		f.inputs[i] = ti
	}
	f.inputs[fieldName].CharLimit = 128
	f.inputs[fieldFile].Placeholder = "path to attachment (optional)"
	f.inputs[fieldName].Focus()

	if existing != nil {
		f.inputs[fieldName].SetValue(existing.Name)
		f.inputs[fieldDescription].SetValue(existing.Description)
		f.inputs[fieldBehaviour].SetValue(existing.Behaviour)
		f.inputs[fieldContext].SetValue(existing.Context)
		f.shared = existing.Shared
	}
	return f
}

// editing reports whether the form updates an existing chatbot.
func (f *botForm) editing() bool {
	return f.existing != nil
}

// focusField moves focus to the given field.
func (f *botForm) focusField(idx int) {
	if idx < 0 {
		idx = fieldCount - 1
	}
	if idx >= fieldCount {
		idx = 0
	}
	for i := range f.inputs {
		if i == idx {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	f.focus = idx
}

// build assembles and validates the chatbot draft. A validation
// failure sets errText and returns nil; nothing is sent anywhere.
func (f *botForm) build(ownerID string) *model.Chatbot {
	f.errText = ""

	var bot *model.Chatbot
	if f.existing != nil {
		bot = f.existing.Clone()
	} else {
		bot = model.NewChatbot(ownerID)
	}

	bot.Name = strings.TrimSpace(f.inputs[fieldName].Value())
	bot.Description = f.inputs[fieldDescription].Value()
	bot.Behaviour = f.inputs[fieldBehaviour].Value()
	bot.Context = f.inputs[fieldContext].Value()
	bot.Shared = f.shared
	bot.RemoveFile = f.removeFile

	if path := strings.TrimSpace(f.inputs[fieldFile].Value()); path != "" {
		att, err := formAttachment(path)
		if err != nil {
			f.errText = err.Error()
			return nil
		}
		bot.Pending = att
	}

	if err := bot.Validate(); err != nil {
		f.errText = err.Error()
		return nil
	}
	return bot
}

// formAttachment stats and types a local file for upload.
func formAttachment(path string) (*model.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read attachment: %w", err)
	}

	mime := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		mime = "application/pdf"
	case ".txt":
		mime = "text/plain"
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".mp3":
		mime = "audio/mpeg"
	case ".mp4":
		mime = "video/mp4"
	default:
		return nil, model.ErrAttachmentType
	}

	att := &model.Attachment{
		Path: path,
		Name: filepath.Base(path),
		Size: info.Size(),
		MIME: mime,
	}
	if err := att.Validate(); err != nil {
		return nil, err
	}
	return att, nil
}
