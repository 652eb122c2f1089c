package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns the combined
// output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// setupWorkspace points the CLI at a throwaway config and data
// directory.
func setupWorkspace(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	cfg := `
[storage]
data_dir = "` + filepath.Join(dir, "data") + `"

[embedding]
provider = "local"

[scheduler]
enabled = false
`
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))

	configPath = path
	t.Cleanup(func() {
		require.NoError(t, Shutdown())
		configPath = ""
	})
}

func TestCLI_IngestAndInspect(t *testing.T) {
	setupWorkspace(t)
	dir := t.TempDir()

	docPath := filepath.Join(dir, "judgment-001.txt")
	text := "主文\n被告應給付原告新臺幣五十萬元。\n聯絡電話：0912-345-678。\n"
	require.NoError(t, os.WriteFile(docPath, []byte(text), 0600))

	out, err := execute(t, "ingest", "--type", "decision", docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "judgment-001: updated")
	assert.Contains(t, out, "1 spans masked")

	// Unchanged content must not create a new revision.
	out, err = execute(t, "ingest", "--type", "decision", docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "judgment-001: unchanged")

	out, err = execute(t, "document", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "judgment-001")
	assert.Contains(t, out, "Total: 1 documents")

	out, err = execute(t, "document", "history", "judgment-001")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 ")
	assert.Contains(t, out, "masked spans: 1")

	out, err = execute(t, "document", "segments", "judgment-001")
	require.NoError(t, err)
	assert.Contains(t, out, "[0]")
	assert.NotContains(t, out, "0912-345-678", "raw PII never reaches output")

	out, err = execute(t, "document", "status", "judgment-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   completed")
}

func TestCLI_AskContextOnly(t *testing.T) {
	setupWorkspace(t)
	dir := t.TempDir()

	docPath := filepath.Join(dir, "statute-184.txt")
	text := "第一條\n因故意或過失，不法侵害他人之權利者，負損害賠償責任。\n"
	require.NoError(t, os.WriteFile(docPath, []byte(text), 0600))

	_, err := execute(t, "ingest", "--type", "statute", docPath)
	require.NoError(t, err)

	out, err := execute(t, "ask", "--context-only", "過失侵害他人權利之損害賠償責任")
	require.NoError(t, err)
	assert.Contains(t, out, "statute-184")
	assert.Contains(t, out, "Context (")
}

func TestCLI_DocumentPurgeRequiresConfirmation(t *testing.T) {
	setupWorkspace(t)

	_, err := execute(t, "document", "purge", "some-doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestCLI_IngestRejectsIDWithMultipleFiles(t *testing.T) {
	setupWorkspace(t)
	dir := t.TempDir()

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("甲"), 0600))
	require.NoError(t, os.WriteFile(b, []byte("乙"), 0600))

	_, err := execute(t, "ingest", "--id", "doc-1", a, b)
	require.Error(t, err)

	// Reset the sticky flag for later tests.
	ingestID = ""
}

func TestCLI_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lexica version")
}
