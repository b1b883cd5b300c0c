// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// MaxAttachmentSize is the largest document accepted for a chatbot, in
// bytes. The backend rejects multipart bodies above this, so the client
// checks before uploading.
const MaxAttachmentSize = 10 * 1024 * 1024 // 10 MiB

// Validation errors for chatbot records. Fixed messages; a failed
// validation never results in a network call.
var (
	ErrNameEmpty          = errors.New("chatbot name must not be empty")
	ErrNameCharset        = errors.New("chatbot name may only contain letters, digits, '_' and '-'")
	ErrAttachmentTooLarge = fmt.Errorf("attached file exceeds %d MiB", MaxAttachmentSize/(1024*1024))
	ErrAttachmentName     = errors.New("attached file name may only contain letters, digits, spaces, '_', '-' and '.'")
	ErrAttachmentType     = errors.New("attached file type is not supported")
)

var (
	botNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-. ]+$`)
)

// allowedAttachmentTypes is the MIME allow-list for chatbot documents.
var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"image/jpeg":      true,
	"audio/mpeg":      true,
	"video/mp4":       true,
}

// =============================================================================
// CHATBOT RECORD
// =============================================================================

// Attachment is a local file staged for upload with a chatbot save.
type Attachment struct {
	Path string // local filesystem path
	Name string // filename sent to the backend
	Size int64  // bytes
	MIME string // detected content type
}

// Chatbot is one persona configuration. ID is empty until the backend
// assigns one on first save; after that the record is updated in place.
type Chatbot struct {
	ID          string    `json:"chatbotid"`
	OwnerID     string    `json:"userid"`
	Name        string    `json:"chatbotname"`
	Description string    `json:"description"`
	Behaviour   string    `json:"behaviour"`
	Context     string    `json:"usercontext"`
	Shared      bool      `json:"isshared"`
	Created     time.Time `json:"createddate"`
	Updated     time.Time `json:"updateddate"`
	LastUsed    time.Time `json:"lastused"`
	FilePath    string    `json:"filepath"`

	// Pending is a local file staged for the next save. Never serialized;
	// it travels as a multipart part, not JSON.
	Pending *Attachment `json:"-"`

	// RemoveFile requests deletion of the stored attachment on next save.
	RemoveFile bool `json:"-"`
}

// NewChatbot returns an unsaved chatbot draft for the given owner.
// The zero ID marks it as create-on-save.
func NewChatbot(ownerID string) *Chatbot {
	now := time.Now()
	return &Chatbot{
		OwnerID: ownerID,
		Created: now,
		Updated: now,
	}
}

// IsNew reports whether the record has never been saved to the backend.
func (c *Chatbot) IsNew() bool {
	return c.ID == ""
}

// Clone returns a deep copy for editing, so keystrokes mutate a draft and
// the registry entry stays untouched until the backend confirms a save.
func (c *Chatbot) Clone() *Chatbot {
	clone := *c
	if c.Pending != nil {
		pending := *c.Pending
		clone.Pending = &pending
	}
	return &clone
}

// Validate enforces the chatbot field rules before any network call:
// non-empty name limited to [a-zA-Z0-9_-], and attachment size, filename
// charset, and MIME allow-list when a file is staged.
func (c *Chatbot) Validate() error {
	if err := ValidateBotName(c.Name); err != nil {
		return err
	}
	if c.Pending != nil {
		return c.Pending.Validate()
	}
	return nil
}

// ValidateBotName checks the chatbot name rule in isolation.
func ValidateBotName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if !botNamePattern.MatchString(name) {
		return ErrNameCharset
	}
	return nil
}

// Validate checks a staged attachment against size, filename, and MIME
// constraints. Any single violation fails the whole save.
func (a *Attachment) Validate() error {
	if a.Size > MaxAttachmentSize {
		return ErrAttachmentTooLarge
	}
	if a.Name == "" || !fileNamePattern.MatchString(a.Name) {
		return ErrAttachmentName
	}
	if !allowedAttachmentTypes[a.MIME] {
		return ErrAttachmentType
	}
	return nil
}
