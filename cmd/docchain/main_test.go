package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/textsplitter"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "one two three four")

	out, err := execute(t, "", "split", "--chunk-size", "10", "--chunk-overlap", "0", "--start-index", path)
	require.NoError(t, err)

	var chunks []chunkJSON
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, "one two", chunks[0].Content)
	assert.Equal(t, "three four", chunks[1].Content)
	assert.Equal(t, path, chunks[1].Metadata["source"])
	assert.InDelta(t, 8, chunks[1].Metadata["start_index"], 0)
}

func TestSplitCommand_InvalidOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "text")

	tests := []struct {
		name string
		args []string
	}{
		{name: "overlap equals size", args: []string{"--chunk-size", "10", "--chunk-overlap", "10"}},
		{name: "negative size", args: []string{"--chunk-size", "-3"}},
		{name: "zero size", args: []string{"--chunk-size", "0"}},
		{name: "negative overlap", args: []string{"--chunk-overlap", "-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"split"}, tt.args...)
			out, err := execute(t, "", append(args, path)...)
			require.Error(t, err)
			assert.ErrorIs(t, err, textsplitter.ErrInvalidConfig)
			assert.Empty(t, out)
		})
	}

	_, err := execute(t, "", "split", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSplitCommand_ConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "docchain.yaml", "splitter:\n  chunk_size: 10\n  chunk_overlap: 0\n")
	path := writeFile(t, dir, "notes.txt", "one two three four")

	out, err := execute(t, "", "--config", cfgPath, "split", path)
	require.NoError(t, err)

	var chunks []chunkJSON
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	assert.Len(t, chunks, 2)
}

func TestAskCommand_Offline(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "docchain.yaml", "splitter:\n  chunk_size: 20\n  chunk_overlap: 0\nretrieval:\n  k: 1\n")
	source := writeFile(t, dir, "animals.txt", "cats purr softly\n\ndogs bark loudly\n\nbirds sing")

	out, err := execute(t, "", "--config", cfgPath, "--offline", "ask", source, "why", "do", "dogs", "bark")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] "+source)
	assert.Contains(t, out, "dogs bark loudly")
	assert.NotContains(t, out, "cats purr softly")
}

func TestAskCommand_EmptySource(t *testing.T) {
	source := writeFile(t, t.TempDir(), "blank.txt", "")

	out, err := execute(t, "", "--offline", "ask", source, "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No relevant chunks found.")
}

func TestChatCommand_OfflineNeedsModel(t *testing.T) {
	_, err := execute(t, "", "--offline", "chat")
	assert.ErrorIs(t, err, errOfflineModel)

	_, err = execute(t, "", "--offline", "agent")
	assert.ErrorIs(t, err, errOfflineModel)
}

func TestRunREPL(t *testing.T) {
	var out bytes.Buffer
	var seen []string
	handler := func(_ context.Context, line string) (string, error) {
		seen = append(seen, line)
		if line == "fail" {
			return "", errors.New("boom")
		}
		return "echo " + line, nil
	}

	err := runREPL(context.Background(), strings.NewReader("hello\n\nfail\nquit\nnever\n"), &out, "test", handler)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "fail"}, seen)
	assert.Contains(t, out.String(), "echo hello")
	assert.Contains(t, out.String(), "error: boom")
	assert.NotContains(t, out.String(), "never")

	seen = nil
	err = runREPL(context.Background(), strings.NewReader("last"), &out, "test", handler)
	require.NoError(t, err)
	assert.Equal(t, []string{"last"}, seen)
}
