// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

// =============================================================================
// CHATBOT CRUD
// =============================================================================

// ListChatbots fetches every chatbot owned by the authenticated user.
// Called once per session; the registry caches the result.
func (c *Client) ListChatbots(ctx context.Context) ([]model.Chatbot, error) {
	var bots []model.Chatbot
	if err := c.getJSON(ctx, "/chatbot/list", &bots); err != nil {
		return nil, err
	}
	return bots, nil
}

// CreateChatbot uploads a new chatbot record. The record is validated
// locally first; a validation failure means no request goes out at all.
// Returns the saved record with the backend-assigned id.
func (c *Client) CreateChatbot(ctx context.Context, bot *model.Chatbot) (*model.Chatbot, error) {
	if err := bot.Validate(); err != nil {
		return nil, err
	}
	return c.upsertChatbot(ctx, http.MethodPost, "/chatbot", bot)
}

// UpdateChatbot uploads a full-record update for an existing chatbot.
func (c *Client) UpdateChatbot(ctx context.Context, bot *model.Chatbot) (*model.Chatbot, error) {
	if err := bot.Validate(); err != nil {
		return nil, err
	}
	if bot.IsNew() {
		return nil, fmt.Errorf("cannot update unsaved chatbot %q", bot.Name)
	}
	return c.upsertChatbot(ctx, http.MethodPut, "/chatbot/"+bot.ID, bot)
}

// DeleteChatbot removes a chatbot. Any non-200 response is a hard failure;
// the registry entry is only dropped after this returns nil.
func (c *Client) DeleteChatbot(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/chatbot/"+id, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(ctx, c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, body)
	}
	return nil
}

// upsertChatbot serializes the record to multipart form data, streaming
// the staged attachment from disk when one is present.
func (c *Client) upsertChatbot(ctx context.Context, method, path string, bot *model.Chatbot) (*model.Chatbot, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"chatbotname": bot.Name,
		"description": bot.Description,
		"behaviour":   bot.Behaviour,
		"usercontext": bot.Context,
		"isshared":    strconv.FormatBool(bot.Shared),
	}
	if bot.RemoveFile {
		fields["removefile"] = "true"
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}

	if bot.Pending != nil {
		if err := writeAttachment(w, bot.Pending); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(ctx, c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	saved := *bot
	saved.Pending = nil
	saved.RemoveFile = false
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse save response: %w", err)
	}
	return &saved, nil
}

// writeAttachment streams the staged file into the multipart body with an
// explicit Content-Type part header, since the backend checks the declared
// MIME against its allow-list.
func writeAttachment(w *multipart.Writer, att *model.Attachment) error {
	f, err := os.Open(att.Path)
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, att.Name))
	header.Set("Content-Type", att.MIME)

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy attachment: %w", err)
	}
	return nil
}
