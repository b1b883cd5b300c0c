// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// =============================================================================
// CONVERSATION ENDPOINTS
// =============================================================================

// ConversationSession identifies one backend conversation with a chatbot.
type ConversationSession struct {
	ConversationID string `json:"conversationid"`
	Description    string `json:"description"`
}

// chatRequest is the JSON body for both the sync and streaming chat
// endpoints. Lowercase keys are the canonical wire contract.
type chatRequest struct {
	ConversationID string `json:"conversationid"`
	Message        string `json:"message"`
}

// chatResponse is the sync chat reply.
type chatResponse struct {
	Response string `json:"response"`
}

// StartConversation requests a conversation id for the (username, chatbot
// name) pair. The chatbot may belong to another user when it is shared;
// the backend decides and answers 403 when it is not.
func (c *Client) StartConversation(ctx context.Context, username, chatbotName string) (*ConversationSession, error) {
	path := "/conversation/start/" + url.PathEscape(username) + "/" + url.PathEscape(chatbotName)

	var session ConversationSession
	if err := c.getJSON(ctx, path, &session); err != nil {
		return nil, err
	}
	if session.ConversationID == "" {
		return nil, fmt.Errorf("backend returned no conversation id")
	}
	return &session, nil
}

// Chat sends one message and waits for the complete reply. This is the
// only endpoint with the short ChatTimeout; a slow model invocation
// surfaces as ErrUnreachable rather than an indefinite hang.
func (c *Client) Chat(ctx context.Context, username, chatbotName, conversationID, message string) (string, error) {
	path := "/conversation/chat/" + url.PathEscape(username) + "/" + url.PathEscape(chatbotName)

	bodyBytes, err := json.Marshal(chatRequest{
		ConversationID: conversationID,
		Message:        message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, c.chatClient, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", handleErrorResponse(resp.StatusCode, body)
	}

	var reply chatResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("failed to parse chat response: %w", err)
	}
	return reply.Response, nil
}
