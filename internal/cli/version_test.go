package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Output(t *testing.T) {
	a := New()
	a.SetVersion("1.2.3", "abc1234", "2026-01-15T10:30:00Z")

	cmd := NewVersionCmd(a)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "lastsignal version 1.2.3\ncommit: abc1234\nbuilt: 2026-01-15T10:30:00Z\n", buf.String())
}

func TestVersionCmd_Defaults(t *testing.T) {
	cmd := NewVersionCmd(New())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "lastsignal version dev")
	assert.Contains(t, buf.String(), "commit: unknown")
}
