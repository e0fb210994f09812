package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "reindex", "excerpt", "render", "compose", "mcp"} {
		assert.Contains(t, names, want)
	}
}

func TestRenderFormatDefault(t *testing.T) {
	f := renderCmd.Flags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "html", f.DefValue)
}
