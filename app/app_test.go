package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrermin/ermin/chat"
	"github.com/mrermin/ermin/internal/configuration"
	"github.com/mrermin/ermin/internal/types"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"backend_url": "http://backend.test", "database": "` + filepath.Join(dir, "db", "ermin.db") + `", "paypal": {"client_id": "sandbox"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	config, err := configuration.Parse(path)
	require.NoError(t, err)

	a, err := New(config)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "http://backend.test/api", a.Backend.BaseURL())
	assert.Contains(t, a.NewPayLater().ScriptURL(), "client-id=sandbox")
	assert.Equal(t, chat.StateUninitialized, a.NewManager().Snapshot().State)

	// The store is scoped to the backend origin.
	user := &types.User{Email: "ada@example.com", Name: "Ada"}
	require.NoError(t, a.Store.Save("token", user))
	session, err := a.Store.Load()
	require.NoError(t, err)
	assert.Equal(t, "token", session.Token)
	assert.Equal(t, user.Email, session.User.Email)
}
