package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPromptShape(t *testing.T) {
	system := Default()
	require.True(t, strings.HasPrefix(system, "You are a calendar event assistant."))
	require.Contains(t, system, "Return ONLY the JSON array, no other text.")
	require.Contains(t, system, `"allDay": false`)
}

func TestLoadWithFrontmatter(t *testing.T) {
	data := []byte(`---
name: custom-extractor
version: "2"
---
Extract events and answer in French.`)

	p, err := Load("custom.md", data)
	require.NoError(t, err)
	require.Equal(t, "custom-extractor", p.Config.Name)
	require.Equal(t, "2", p.Config.Version)
	require.Equal(t, "Extract events and answer in French.", p.System)
	require.Equal(t, "custom.md", p.Source)
}

func TestLoadWithoutFrontmatter(t *testing.T) {
	p, err := Load("plain.md", []byte("Just the prompt body.\nSecond line."))
	require.NoError(t, err)
	require.Equal(t, "Just the prompt body.\nSecond line.", p.System)
	require.Empty(t, p.Config.Name)
}

func TestLoadRejectsEmptyBody(t *testing.T) {
	_, err := Load("empty.md", []byte("---\nname: metadata-only\n---\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty body")

	_, err = Load("blank.md", []byte("   \n"))
	require.Error(t, err)
}

func TestLoadRejectsBadFrontmatter(t *testing.T) {
	_, err := Load("bad.md", []byte("---\nname: [unterminated\n---\nbody"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid frontmatter")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("File-based prompt."), 0o600))

	p, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "File-based prompt.", p.System)
	require.Equal(t, path, p.Source)

	_, err = LoadFile(filepath.Join(dir, "missing.md"))
	require.Error(t, err)
}
