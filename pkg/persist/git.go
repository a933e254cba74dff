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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/docsagent/internal/fsutil"
	"github.com/kraklabs/docsagent/pkg/gitrepo"
)

// PullRequester opens a pull request and returns its URL.
type PullRequester interface {
	CreatePullRequest(ctx context.Context, pr PullRequest) (string, error)
}

// PublishResult describes a publish run.
type PublishResult struct {
	Branch string   `json:"branch"`
	Commit string   `json:"commit,omitempty"`
	Files  []string `json:"files"` // repository-relative paths that changed
	PRURL  string   `json:"pr_url,omitempty"`
}

// GitPublisher copies generated files into a repository on a fresh branch,
// commits them, and optionally pushes and opens a pull request. The
// repository is returned to its original branch afterwards.
type GitPublisher struct {
	Repo       *gitrepo.Repo
	Domain     string
	BaseBranch string // branch the docs branch starts from; "" uses HEAD
	Remote     string
	PR         PullRequester // nil disables pull requests

	now    func() time.Time
	logger *slog.Logger
}

func NewGitPublisher(repo *gitrepo.Repo, domain string, pr PullRequester, logger *slog.Logger) *GitPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitPublisher{
		Repo:       repo,
		Domain:     domain,
		BaseBranch: "main",
		Remote:     "origin",
		PR:         pr,
		now:        time.Now,
		logger:     logger,
	}
}

// BranchName returns docs/update-{domain}-{YYYYMMDD-HHMMSS}.
func (g *GitPublisher) BranchName(t time.Time) string {
	return fmt.Sprintf("docs/update-%s-%s", g.Domain, t.Format("20060102-150405"))
}

// Publish commits the files of mapping. With createPR it also pushes the
// branch and opens a pull request.
func (g *GitPublisher) Publish(ctx context.Context, mapping Mapping, langs []string, createPR bool) (res *PublishResult, err error) {
	if len(mapping) == 0 {
		g.logger.Warn("git.publish.no_files", "domain", g.Domain)
		return &PublishResult{}, nil
	}
	original, err := g.Repo.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("current branch: %w", err)
	}

	now := g.now()
	branch := g.BranchName(now)
	base := g.BaseBranch
	if base != "" && !g.Repo.BranchExists(ctx, base) {
		g.logger.Warn("git.publish.base_missing", "base", base, "using", original)
		base = ""
	}
	if err := g.Repo.CreateBranch(ctx, branch, base); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	defer func() {
		// Use a fresh context so cleanup still runs after cancellation.
		if cerr := g.Repo.Checkout(context.WithoutCancel(ctx), original); cerr != nil {
			g.logger.Error("git.publish.restore_failed", "branch", original, "err", cerr)
			err = errors.Join(err, fmt.Errorf("return to %s: %w", original, cerr))
		}
	}()

	targets, err := g.copyFiles(mapping)
	if err != nil {
		return nil, err
	}
	changes, err := g.Repo.Status(ctx, targets...)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	res = &PublishResult{Branch: branch}
	for _, c := range changes {
		res.Files = append(res.Files, c.Path)
	}
	if len(res.Files) == 0 {
		g.logger.Info("git.publish.nothing_changed", "branch", branch)
		return res, nil
	}

	if err := g.Repo.Add(ctx, res.Files...); err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}
	res.Commit, err = g.Repo.Commit(ctx, CommitMessage(g.Domain, langs, res.Files, now))
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	g.logger.Info("git.publish.commit", "branch", branch, "files", len(res.Files))

	if !createPR {
		return res, nil
	}
	if err := g.Repo.Push(ctx, g.Remote, branch); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	if g.PR == nil {
		g.logger.Warn("git.publish.pr_disabled", "reason", "no GitHub client configured")
		return res, nil
	}
	res.PRURL, err = g.PR.CreatePullRequest(ctx, PullRequest{
		Title: PRTitle(g.Domain, langs),
		Body:  PRBody(g.Domain, langs, res.Files),
		Head:  branch,
		Base:  g.BaseBranch,
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}
	g.logger.Info("git.publish.pr", "url", res.PRURL)
	return res, nil
}

// copyFiles copies every existing source into the repository and returns the
// target paths, sorted.
func (g *GitPublisher) copyFiles(mapping Mapping) ([]string, error) {
	var targets []string
	for src, rel := range mapping {
		data, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				g.logger.Warn("git.publish.source_missing", "path", src)
				continue
			}
			return nil, err
		}
		dst := filepath.Join(g.Repo.Path(), filepath.FromSlash(rel))
		if err := fsutil.WriteFileAtomic(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("copy %s: %w", rel, err)
		}
		targets = append(targets, rel)
	}
	sort.Strings(targets)
	return targets, nil
}

// CommitMessage builds the docs commit message.
func CommitMessage(domain string, langs, files []string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "docs(%s): update %s documentation\n\n", domain, langList(langs))
	fmt.Fprintf(&b, "Updated %d file(s):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	fmt.Fprintf(&b, "\nGenerated by DocsAgent on %s", now.Format("2006-01-02"))
	return b.String()
}

// PRTitle builds the pull request title.
func PRTitle(domain string, langs []string) string {
	return fmt.Sprintf("[Doc] docs(%s): update %s documentation", domain, langList(langs))
}

// PRBody builds the pull request description.
func PRBody(domain string, langs, files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## What I'm doing:\n\nThis PR updates the %s documentation for: %s\n\n", domain, langList(langs))
	b.WriteString("### Changed Files\n\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}
	b.WriteString("\nGenerated by DocsAgent. Please review the changes before merging.\n\n")
	b.WriteString("## What type of PR is this:\n\n- [x] Doc\n")
	return b.String()
}

func langList(langs []string) string {
	if len(langs) == 0 {
		return "multiple languages"
	}
	return strings.Join(langs, ", ")
}

// PrintResult writes a one-screen summary of res.
func PrintResult(w io.Writer, res *PublishResult) {
	if res == nil || res.Branch == "" {
		fmt.Fprintln(w, "No files to publish")
		return
	}
	fmt.Fprintf(w, "Branch: %s\n", res.Branch)
	if res.Commit != "" {
		fmt.Fprintf(w, "Commit: %s (%d files)\n", res.Commit[:min(8, len(res.Commit))], len(res.Files))
	}
	if res.PRURL != "" {
		fmt.Fprintf(w, "Pull request: %s\n", res.PRURL)
	}
}
