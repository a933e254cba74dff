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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dtest "github.com/kraklabs/docsagent/internal/testing"
	"github.com/kraklabs/docsagent/pkg/versiontrack"
)

// initRepo creates a repository with two tagged commits. config.h exists only
// from 1.0.1 onward.
func initRepo(t *testing.T) string {
	t.Helper()
	r := dtest.NewGitRepo(t)
	r.Write("README.md", "hello\n")
	r.CommitAll("init")
	r.Tag("v1.0.0")

	r.Write("src/config.h", "CONF_Int32(port, \"9060\");\n")
	r.CommitAll("add config")
	r.Tag("1.0.1")
	return r.Dir
}

func TestOpen_NotRepository(t *testing.T) {
	dtest.RequireGit(t)
	_, err := Open(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestRepo_HistoryReads(t *testing.T) {
	dir := initRepo(t)
	repo, err := Open(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	tags, err := repo.Tags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1.0.0", "1.0.1"}, tags)

	content, err := repo.ReadFileAt(ctx, "1.0.1", "src/config.h")
	require.NoError(t, err)
	assert.Contains(t, string(content), "CONF_Int32(port")

	_, err = repo.ReadFileAt(ctx, "v1.0.0", "src/config.h")
	assert.True(t, errors.Is(err, versiontrack.ErrPathNotFound), "got %v", err)

	head, err := repo.HeadCommit(ctx)
	require.NoError(t, err)
	assert.Len(t, head, 40)
}

func TestRepo_TrackerIntegration(t *testing.T) {
	dir := initRepo(t)
	repo, err := Open(dir, nil)
	require.NoError(t, err)

	names := func(content []byte) ([]string, error) {
		if len(content) == 0 {
			return nil, nil
		}
		return []string{"port"}, nil
	}
	tr, err := versiontrack.NewTracker(repo, names, versiontrack.Options{
		Branches:    []string{"1.0"},
		SourceFiles: []string{"src/config.h"},
		CachePath:   filepath.Join(t.TempDir(), "v.version"),
	}, nil)
	require.NoError(t, err)

	res, err := tr.Update(context.Background(), []string{"port"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.1"}, res.Versions["port"])
}

func TestRepo_BranchCommitStatus(t *testing.T) {
	dir := initRepo(t)
	repo, err := Open(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.CreateBranch(ctx, "docs/update-test", ""))
	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "docs/update-test", branch)
	assert.True(t, repo.BranchExists(ctx, "main"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs.md"), []byte("# doc\n"), 0644))
	changes, err := repo.Status(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "??", changes[0].Status)

	require.NoError(t, repo.Add(ctx, "docs.md"))
	staged, err := repo.StagedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs.md"}, staged)

	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	sha, err := repo.Commit(ctx, "docs: add")
	require.NoError(t, err)
	assert.NotEmpty(t, sha)

	require.NoError(t, repo.Checkout(ctx, "main"))
}

func TestParseStatusLine(t *testing.T) {
	tests := []struct {
		line string
		want Change
		ok   bool
	}{
		{" M docs/en/a.md", Change{Status: " M", Path: "docs/en/a.md"}, true},
		{"A  new.md", Change{Status: "A ", Path: "new.md"}, true},
		{"R  old.md -> new.md", Change{Status: "R ", Path: "new.md", OldPath: "old.md"}, true},
		{`?? "with space.md"`, Change{Status: "??", Path: "with space.md"}, true},
		{"??", Change{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseStatusLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
