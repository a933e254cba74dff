// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{"with underlying error", &UserError{Message: "Cannot push branch", Err: fmt.Errorf("rejected")}, "Cannot push branch: rejected"},
		{"without underlying error", &UserError{Message: "Invalid domain"}, "Invalid domain"},
		{"empty message", &UserError{Err: fmt.Errorf("boom")}, ": boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("underlying")
	tests := []struct {
		name     string
		err      *UserError
		wantCode int
		wantErr  error
	}{
		{"config", NewConfigError("m", "c", "f", cause), ExitConfig, cause},
		{"git", NewGitError("m", "c", "f", cause), ExitGit, cause},
		{"network", NewNetworkError("m", "c", "f", cause), ExitNetwork, cause},
		{"input", NewInputError("m", "c", "f"), ExitInput, nil},
		{"permission", NewPermissionError("m", "c", "f", cause), ExitPermission, cause},
		{"not found", NewNotFoundError("m", "c", "f"), ExitNotFound, nil},
		{"internal", NewInternalError("m", "c", "f", cause), ExitInternal, cause},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "m", tt.err.Message)
			assert.Equal(t, "c", tt.err.Cause)
			assert.Equal(t, "f", tt.err.Fix)
			assert.Equal(t, tt.wantCode, tt.err.ExitCode)
			assert.Equal(t, tt.wantErr, tt.err.Unwrap())
		})
	}
}

func TestExitCodesUnique(t *testing.T) {
	seen := map[int]bool{}
	for _, c := range []int{ExitSuccess, ExitConfig, ExitGit, ExitNetwork, ExitInput, ExitPermission, ExitNotFound, ExitInternal} {
		assert.False(t, seen[c], "duplicate exit code %d", c)
		seen[c] = true
	}
}

func TestErrorChain(t *testing.T) {
	sentinel := errors.New("tag listing failed")
	wrapped := fmt.Errorf("versions: %w", NewGitError("Cannot read tags", "", "", sentinel))

	assert.ErrorIs(t, wrapped, sentinel)
	var ue *UserError
	require.ErrorAs(t, wrapped, &ue)
	assert.Equal(t, ExitGit, ue.ExitCode)
}

func TestUserError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{
			name: "all fields",
			err:  &UserError{Message: "Cannot load configuration", Cause: "meta_dir is empty", Fix: "Set META_DIR"},
			want: "Error: Cannot load configuration\nCause: meta_dir is empty\nFix:   Set META_DIR\n",
		},
		{
			name: "without cause",
			err:  &UserError{Message: "Unknown domain", Fix: "Use fe_config, be_config, variables or functions"},
			want: "Error: Unknown domain\nFix:   Use fe_config, be_config, variables or functions\n",
		},
		{
			name: "message only",
			err:  &UserError{Message: "Something failed"},
			want: "Error: Something failed\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Format(true))
		})
	}
}

func TestUserError_FormatRespectsNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	out := (&UserError{Message: "m", Cause: "c", Fix: "f"}).Format(false)
	assert.NotContains(t, out, "\x1b[")
}

func TestReport(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, ExitSuccess, Report(&buf, nil, false, true))
		assert.Empty(t, buf.String())
	})

	t.Run("wrapped user error keeps its code", func(t *testing.T) {
		var buf bytes.Buffer
		err := fmt.Errorf("generate: %w", NewNetworkError("LLM request failed", "status 503", "Retry later", nil))
		assert.Equal(t, ExitNetwork, Report(&buf, err, false, true))
		assert.Contains(t, buf.String(), "Error: LLM request failed")
	})

	t.Run("plain error is internal", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Equal(t, ExitInternal, Report(&buf, errors.New("boom"), false, true))
		assert.Equal(t, "Error: boom\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		code := Report(&buf, NewNotFoundError("No meta file", "", "Run 'docsagent extract'"), true, true)
		assert.Equal(t, ExitNotFound, code)

		var got ErrorJSON
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, ErrorJSON{Error: "No meta file", Fix: "Run 'docsagent extract'", ExitCode: ExitNotFound}, got)
	})
}

func TestFatalErrorNil(t *testing.T) {
	FatalError(nil, false)
}
