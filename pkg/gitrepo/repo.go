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

package gitrepo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

// ErrNotRepository is returned by Open when the path is not inside a git
// working copy.
var ErrNotRepository = errors.New("not a git repository")

// DefaultTimeout bounds every single git invocation.
const DefaultTimeout = 2 * time.Minute

// Repo runs git commands against one working copy.
type Repo struct {
	logger  *slog.Logger
	path    string
	timeout time.Duration
}

// Open validates that path is a git working copy and returns a Repo for it.
func Open(path string, logger *slog.Logger) (*Repo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repo{logger: logger, path: path, timeout: DefaultTimeout}
	if !r.IsRepository(context.Background()) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
	}
	return r, nil
}

// Path returns the working copy root given to Open.
func (r *Repo) Path() string { return r.path }

// run executes git with args in the working copy and returns stdout.
func (r *Repo) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return output, nil
}

// IsRepository reports whether the path is inside a git working copy.
func (r *Repo) IsRepository(ctx context.Context) bool {
	_, err := r.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// Tags lists every tag name.
func (r *Repo) Tags(ctx context.Context) ([]string, error) {
	output, err := r.run(ctx, "tag", "--list")
	if err != nil {
		return nil, err
	}
	var tags []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if tag := strings.TrimSpace(scanner.Text()); tag != "" {
			tags = append(tags, tag)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse git tag output: %w", err)
	}
	r.logger.Debug("git.tags.list", "count", len(tags))
	return tags, nil
}

// ReadFileAt returns path's content as of ref. A path absent at ref yields an
// error wrapping versiontrack.ErrPathNotFound.
func (r *Repo) ReadFileAt(ctx context.Context, ref, path string) ([]byte, error) {
	output, err := r.run(ctx, "show", ref+":"+path)
	if err != nil {
		if isMissingPath(err.Error()) {
			return nil, fmt.Errorf("%s:%s: %w", ref, path, versiontrack.ErrPathNotFound)
		}
		return nil, err
	}
	return output, nil
}

// isMissingPath recognises the messages git prints when a path does not
// exist in a tree.
func isMissingPath(msg string) bool {
	return strings.Contains(msg, "does not exist in") ||
		strings.Contains(msg, "exists on disk, but not in") ||
		(strings.Contains(msg, "path '") && strings.Contains(msg, "does not exist"))
}

// resolveRef resolves a ref (branch, tag, HEAD) to a commit SHA.
func (r *Repo) resolveRef(ctx context.Context, ref string) (string, error) {
	output, err := r.run(ctx, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// HeadCommit returns the SHA of HEAD.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	return r.resolveRef(ctx, "HEAD")
}

// CurrentBranch returns the checked out branch name ("HEAD" when detached).
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// BranchExists reports whether a local branch exists.
func (r *Repo) BranchExists(ctx context.Context, name string) bool {
	_, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// Checkout switches to an existing branch.
func (r *Repo) Checkout(ctx context.Context, name string) error {
	_, err := r.run(ctx, "checkout", name)
	return err
}

// CreateBranch creates name from base and checks it out. An empty base
// branches from the current HEAD.
func (r *Repo) CreateBranch(ctx context.Context, name, base string) error {
	args := []string{"checkout", "-b", name}
	if base != "" {
		args = append(args, base)
	}
	if _, err := r.run(ctx, args...); err != nil {
		return err
	}
	r.logger.Info("git.branch.create", "branch", name, "base", base)
	return nil
}

// Add stages the given repository-relative paths.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := r.run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// Commit records the staged changes with message.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if _, err := r.run(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	sha, err := r.HeadCommit(ctx)
	if err != nil {
		return "", err
	}
	r.logger.Info("git.commit", "sha", sha[:min(8, len(sha))])
	return sha, nil
}

// Push pushes branch to remote and sets upstream.
func (r *Repo) Push(ctx context.Context, remote, branch string) error {
	if _, err := r.run(ctx, "push", "-u", remote, branch); err != nil {
		return err
	}
	r.logger.Info("git.push", "remote", remote, "branch", branch)
	return nil
}

// RemoteURL returns the fetch URL of remote.
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, error) {
	output, err := r.run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
