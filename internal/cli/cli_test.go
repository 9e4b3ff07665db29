package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "---      Chats      ---", title("Chats", 23))
	assert.Equal(t, "---      Chats      ----", title("Chats", 24))
	assert.Equal(t, "      Chats      ", title("Chats", 10))
}

func TestWidthHasFallback(t *testing.T) {
	saved := width
	defer func() { width = saved }()

	width = 0
	assert.Equal(t, 80, Width())
	width = 120
	assert.Equal(t, 120, Width())
}
