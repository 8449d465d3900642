package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown", "id", "Some.Package")
	out := buf.String()
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "id=Some.Package")
}

func TestNew_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no colour outside a terminal")
	assert.Regexp(t, `^ERR boom\s*$`, out)
}

func TestColorEnabled_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, colorEnabled(&bytes.Buffer{}))
}
