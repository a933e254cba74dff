// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"strings"
)

// ParseModel splits a "provider:model" spec. A spec without a known provider
// prefix is returned unchanged with an empty provider, so Ollama tags such as
// "qwen2.5:7b" survive.
func ParseModel(spec string) (provider, model string) {
	prefix, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return "", spec
	}
	switch strings.ToLower(prefix) {
	case "ollama", "local", "openai", "openai-compatible", "anthropic", "claude", "mock", "test":
		return strings.ToLower(prefix), rest
	}
	return "", spec
}

// BuildChatMessages creates a chat message array with system prompt.
func BuildChatMessages(systemPrompt, userPrompt string, history ...Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userPrompt})
	return messages
}

// Complete sends one system+user exchange and returns the trimmed reply.
func Complete(ctx context.Context, p Provider, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.Chat(ctx, ChatRequest{Messages: BuildChatMessages(systemPrompt, userPrompt)})
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", p.Name(), err)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}
