package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/phrazzld/scry-lexicon/internal/app"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperClient struct {
	calls atomic.Int32
}

func (c *upperClient) Generate(_ context.Context, req generation.Request) (*generation.Payload, error) {
	c.calls.Add(1)
	if req.PrimaryText == "unbekannt" {
		return nil, generation.ClientError(400, fmt.Errorf("unsupported word"))
	}
	return &generation.Payload{Items: []generation.Item{
		{Text: strings.ToUpper(req.PrimaryText)},
		{Text: strings.ToLower(req.PrimaryText)},
	}}, nil
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`server:
  log_level: error
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
llm:
  gemini_api_key: test-key
cache:
  backend: sqlite
  sqlite_path: %q
batch:
  initial_retry_delay_ms: 0
`, filepath.Join(dir, "cache.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, client generation.Client, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(app.WithGenerationClient(client))
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestTranslateUsesCacheAcrossRuns(t *testing.T) {
	cfg := writeConfig(t)
	client := &upperClient{}

	first := execute(t, client, "", "--config", cfg, "translate", "--from", "de", "Haus")
	require.NoError(t, first.err, first.stderr)
	assert.Contains(t, first.stdout, "  HAUS\n")
	assert.NotContains(t, first.stdout, "cached")

	second := execute(t, client, "", "--config", cfg, "--format", "json", "translate", "--from", "de", "Haus")
	require.NoError(t, second.err, second.stderr)
	var out translateOutput
	require.NoError(t, json.Unmarshal([]byte(second.stdout), &out))
	assert.True(t, out.CacheHit)
	assert.NotNil(t, out.ExpiresAt)
	assert.Equal(t, []string{"HAUS", "haus"}, out.Items)

	assert.Equal(t, int32(1), client.calls.Load())

	count := execute(t, client, "", "--config", cfg, "cache", "count")
	require.NoError(t, count.err)
	assert.Equal(t, "1 of 5000 entries\n", count.stdout)
}

func TestTranslateReportsSuggestion(t *testing.T) {
	res := execute(t, &upperClient{}, "", "--config", writeConfig(t), "translate", "--from", "de", "unbekannt")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), generation.KindClientError.RecoverySuggestion())
}

func TestEnrichFromStdin(t *testing.T) {
	client := &upperClient{}
	words := "# verbs\nlaufen\tto run\n\nHaus\nunbekannt\n"

	res := execute(t, client, words, "--config", writeConfig(t), "--format", "json",
		"enrich", "--from", "de", "-j", "2")
	require.NoError(t, res.err, res.stderr)

	var out enrichOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	assert.False(t, out.Cancelled)
	require.Len(t, out.Words, 3)
	assert.Equal(t, "laufen", out.Words[0].Text)
	assert.Equal(t, "to run", out.Words[0].Definition)
	assert.Equal(t, []string{"LAUFEN", "laufen"}, out.Words[0].Translations)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, generation.KindClientError, out.Failures[0].Kind)

	assert.Contains(t, res.stderr, "translation 3/3")
}

func TestEnrichFromFileAsText(t *testing.T) {
	cfg := writeConfig(t)
	list := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(list, []byte("Katze\n"), 0o600))

	res := execute(t, &upperClient{}, "", "--config", cfg,
		"enrich", "--from", "de", "--task", "sentences", list)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Katze\n  KATZE\n  katze\n")
	assert.Contains(t, res.stdout, "1 succeeded, 0 failed")
}

func TestEnrichRejectsEmptyList(t *testing.T) {
	res := execute(t, &upperClient{}, "\n# nothing\n", "--config", writeConfig(t), "enrich", "--from", "de")
	assert.ErrorContains(t, res.err, "word list is empty")
}

func TestReadWords(t *testing.T) {
	words, err := readWords(strings.NewReader("  Hund \t dog \n"), "de", "en")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "Hund", words[0].Text)
	assert.Equal(t, "dog", words[0].Definition)

	_, err = readWords(strings.NewReader("Hund\n"), "", "en")
	assert.ErrorContains(t, err, "line 1")
}

func TestCacheSweep(t *testing.T) {
	res := execute(t, &upperClient{}, "", "--config", writeConfig(t), "cache", "sweep")
	require.NoError(t, res.err)
	assert.Equal(t, "Removed 0 expired entries.\n", res.stdout)
}

func TestMigrate(t *testing.T) {
	cfg := writeConfig(t)

	require.NoError(t, execute(t, nil, "", "--config", cfg, "migrate").err)
	require.NoError(t, execute(t, nil, "", "--config", cfg, "migrate", "status").err)
	assert.Error(t, execute(t, nil, "", "--config", cfg, "migrate", "sideways").err)
}

func TestToken(t *testing.T) {
	res := execute(t, nil, "", "--config", writeConfig(t), "token", "--subject", "tester")
	require.NoError(t, res.err)
	assert.Len(t, strings.Split(strings.TrimSpace(res.stdout), "."), 3)
}

func TestRejectsUnknownFormat(t *testing.T) {
	res := execute(t, nil, "", "--format", "xml", "cache", "count")
	assert.ErrorContains(t, res.err, "unknown output format")
}
