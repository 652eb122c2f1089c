package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects logger output to a buffer for the test and restores
// stderr and verbose state afterwards.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := new(bytes.Buffer)
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return buf
}

func TestDebugSuppressedByDefault(t *testing.T) {
	buf := capture(t)

	Debug("masked %d spans in %s", 3, "doc-1")

	assert.Empty(t, buf.String())
}

func TestDebugPrintsWhenVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Debug("masked %d spans in %s", 3, "doc-1")

	assert.Equal(t, "[DEBUG] masked 3 spans in doc-1\n", buf.String())
}

func TestInfoPrintsWhenVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Info("rebuilt vector index with %d vectors", 42)

	assert.Equal(t, "[INFO] rebuilt vector index with 42 vectors\n", buf.String())
}

func TestSectionHeader(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Section("Segmentation")

	assert.Equal(t, "\n=== Segmentation ===\n", buf.String())
}

func TestWarnAlwaysPrints(t *testing.T) {
	buf := capture(t)

	Warn("watch error: %v", os.ErrClosed)

	assert.Contains(t, buf.String(), "[WARN] watch error:")
}

func TestIsVerboseTracksSetVerbose(t *testing.T) {
	capture(t)

	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
