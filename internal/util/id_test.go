package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a := NewID("")
	b := NewID("")
	require.Len(t, a, 26)
	assert.Less(t, a, b)

	got := NewID("img")
	assert.True(t, strings.HasPrefix(got, "img_"), got)
	assert.Len(t, got, 30)
}
