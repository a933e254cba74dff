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

package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// PullRequest is the payload of a pull request.
type PullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// GitHubClient opens pull requests through the GitHub REST API.
type GitHubClient struct {
	BaseURL string
	token   string
	repo    string // owner/name
	client  *http.Client
	logger  *slog.Logger
}

func NewGitHubClient(token, repo string, logger *slog.Logger) *GitHubClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubClient{
		BaseURL: "https://api.github.com",
		token:   token,
		repo:    repo,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// CreatePullRequest opens pr against the configured repository. When the
// token belongs to a user other than the repository owner the head branch is
// qualified as "user:branch" so pull requests from forks work.
func (c *GitHubClient) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	var user struct {
		Login string `json:"login"`
	}
	if err := c.do(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return "", fmt.Errorf("github user: %w", err)
	}
	owner, _, _ := strings.Cut(c.repo, "/")
	if user.Login != "" && !strings.EqualFold(user.Login, owner) && !strings.Contains(pr.Head, ":") {
		pr.Head = user.Login + ":" + pr.Head
	}

	var created struct {
		HTMLURL string `json:"html_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/repos/"+c.repo+"/pulls", pr, &created); err != nil {
		return "", err
	}
	c.logger.Info("github.pr.created", "url", created.HTMLURL, "head", pr.Head)
	return created.HTMLURL, nil
}

func (c *GitHubClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.BaseURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("github %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// RepoFromRemote extracts "owner/name" from a GitHub HTTPS or SSH remote URL.
func RepoFromRemote(url string) (string, error) {
	rest := ""
	switch {
	case strings.HasPrefix(url, "https://github.com/"):
		rest = strings.TrimPrefix(url, "https://github.com/")
	case strings.HasPrefix(url, "git@github.com:"):
		rest = strings.TrimPrefix(url, "git@github.com:")
	case strings.HasPrefix(url, "ssh://git@github.com/"):
		rest = strings.TrimPrefix(url, "ssh://git@github.com/")
	default:
		return "", fmt.Errorf("not a GitHub remote: %s", url)
	}
	parts := strings.Split(strings.TrimSuffix(strings.TrimSuffix(rest, "/"), ".git"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("cannot parse GitHub repository from %s", url)
	}
	return parts[0] + "/" + parts[1], nil
}
