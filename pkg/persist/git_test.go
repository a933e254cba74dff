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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dtest "github.com/kraklabs/docsagent/internal/testing"
	"github.com/kraklabs/docsagent/pkg/gitrepo"
)

type fakePR struct {
	got PullRequest
}

func (f *fakePR) CreatePullRequest(ctx context.Context, pr PullRequest) (string, error) {
	f.got = pr
	return "https://github.com/o/r/pull/1", nil
}

// gitFixture creates a repository on main with a bare "origin" remote.
func gitFixture(t *testing.T) string {
	t.Helper()
	r := dtest.NewGitRepo(t)
	r.Write("README.md", "hi\n")
	r.CommitAll("init")
	r.AddBareRemote("origin")
	return r.Dir
}

func TestGitPublisher_Publish(t *testing.T) {
	dir := gitFixture(t)
	repo, err := gitrepo.Open(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	out := t.TempDir()
	src := filepath.Join(out, "en", "FE_configuration.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("# FE\n"), 0o644))

	pr := &fakePR{}
	pub := NewGitPublisher(repo, "fe_config", pr, nil)
	pub.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	mapping := Mapping{src: "docs/en/administration/management/FE_configuration.md"}
	mapping[filepath.Join(out, "zh", "missing.md")] = "docs/zh/missing.md"
	res, err := pub.Publish(ctx, mapping, []string{"en"}, true)
	require.NoError(t, err)

	assert.Equal(t, "docs/update-fe_config-20250304-050607", res.Branch)
	assert.Equal(t, []string{"docs/en/administration/management/FE_configuration.md"}, res.Files)
	assert.NotEmpty(t, res.Commit)
	assert.Equal(t, "https://github.com/o/r/pull/1", res.PRURL)
	assert.Equal(t, "[Doc] docs(fe_config): update en documentation", pr.got.Title)
	assert.Equal(t, res.Branch, pr.got.Head)
	assert.Equal(t, "main", pr.got.Base)

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
	_, err = os.Stat(filepath.Join(dir, "docs"))
	assert.True(t, os.IsNotExist(err), "docs belong to the publish branch only")

	msg, err := exec.Command("git", "-C", dir, "log", "-1", "--format=%B", res.Branch).Output()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(msg), "docs(fe_config): update en documentation\n\nUpdated 1 file(s):\n- docs/en/"))
}

func TestGitPublisher_NothingChanged(t *testing.T) {
	dir := gitFixture(t)
	repo, err := gitrepo.Open(dir, nil)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(src, []byte("hi\n"), 0o644))

	res, err := NewGitPublisher(repo, "variables", nil, nil).
		Publish(context.Background(), Mapping{src: "README.md"}, []string{"en"}, false)
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.Empty(t, res.Commit)
}

func TestCommitMessage(t *testing.T) {
	msg := CommitMessage("functions", []string{"en", "zh"}, []string{"a.md", "b.md"}, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "docs(functions): update en, zh documentation\n\n"+
		"Updated 2 file(s):\n- a.md\n- b.md\n\nGenerated by DocsAgent on 2025-01-02", msg)
	assert.Contains(t, PRBody("functions", nil, []string{"a.md"}), "- `a.md`")
}

func TestGitHubClient_CreatePullRequest(t *testing.T) {
	var got PullRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"login": "forker"}`))
		case "/repos/StarRocks/starrocks/pulls":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"html_url": "https://github.com/StarRocks/starrocks/pull/9"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewGitHubClient("secret", "StarRocks/starrocks", nil)
	c.BaseURL = server.URL
	url, err := c.CreatePullRequest(context.Background(), PullRequest{Title: "t", Head: "docs/x", Base: "main"})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/StarRocks/starrocks/pull/9", url)
	assert.Equal(t, "forker:docs/x", got.Head)
}

func TestGitHubClient_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewGitHubClient("bad", "o/r", nil)
	c.BaseURL = server.URL
	_, err := c.CreatePullRequest(context.Background(), PullRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestRepoFromRemote(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://github.com/StarRocks/starrocks.git", "StarRocks/starrocks", false},
		{"git@github.com:StarRocks/starrocks.git", "StarRocks/starrocks", false},
		{"ssh://git@github.com/o/r", "o/r", false},
		{"https://gitlab.com/o/r.git", "", true},
		{"https://github.com/onlyowner", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := RepoFromRemote(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
