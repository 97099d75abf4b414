package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesktopCmd_ConfigFlag(t *testing.T) {
	var got string
	cmd := newDesktopCmd(func(configPath string) error {
		got = configPath
		return nil
	})
	cmd.SetArgs([]string{"--config", "/tmp/arafiles.yaml"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/tmp/arafiles.yaml", got)

	got = "unset"
	cmd = newDesktopCmd(func(configPath string) error {
		got = configPath
		return nil
	})
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Empty(t, got)
}
