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

// Package llm provides a unified interface for Large Language Model providers.
//
// The docs pipeline uses it to draft English parameter documentation and to
// translate documentation between languages.
//
// # Supported Providers
//
//   - Ollama: local models, no API key required (default)
//   - OpenAI: GPT models and OpenAI-compatible APIs, through go-openai
//   - Anthropic: Claude models
//   - Mock: for testing without real API calls
//
// # Quick Start
//
//	provider, err := llm.NewProvider(llm.ProviderConfig{
//	    Type:        "openai",
//	    APIKey:      os.Getenv("LLM_API_KEY"),
//	    Temperature: 0.1,
//	    MaxTokens:   500,
//	})
//	if err != nil {
//	    return err
//	}
//
//	text, err := llm.Complete(ctx, provider,
//	    "You are a technical writer.",
//	    "Describe the FE parameter qe_slow_log_ms.",
//	)
//
// A model spec may name its provider: ParseModel("openai:gpt-4o-mini")
// returns ("openai", "gpt-4o-mini").
//
// # Retries and Rate Limits
//
// HTTP providers retry rate-limit (429) and server (5xx) responses as well as
// network failures up to ProviderConfig.MaxRetries times with exponential
// backoff. Client errors are returned at once as *StatusError. Setting
// RequestsPerMinute wraps the provider in a RateLimited limiter.
//
// # Environment Variables
//
// Ollama:
//   - OLLAMA_HOST: Server URL (default: http://localhost:11434)
//   - OLLAMA_MODEL: Model name
//
// OpenAI:
//   - OPENAI_API_KEY: API key
//   - OPENAI_BASE_URL: API URL for compatible services
//   - OPENAI_MODEL: Model name (default: gpt-4o-mini)
//
// Anthropic:
//   - ANTHROPIC_API_KEY: API key
//   - ANTHROPIC_MODEL: Model name (default: claude-3-5-sonnet-20241022)
//
// Explicit ProviderConfig fields take precedence over the environment.
package llm
