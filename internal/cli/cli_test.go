package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"siteshell/internal/config"
	"siteshell/internal/logger"
	"siteshell/internal/storage/db"
	"siteshell/internal/storage/model"
	"siteshell/internal/storage/repo"
	"siteshell/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(fstest.MapFS{}, domain.VersionInfo{Version: "1.0.0", Commit: "abc123"})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "siteshell.db")
	gdb, err := db.New(db.Options{FullPath: path, Prefix: config.NewConfig().Sqlite.Prefix})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, model.All()...))
	require.NoError(t, db.Close(gdb))
	return path
}

func TestVersion(t *testing.T) {
	out := run(t, "version")
	assert.Contains(t, out, "siteshell 1.0.0")
	assert.Contains(t, out, "commit: abc123")
}

func TestCookies_ShowAndClear(t *testing.T) {
	path := seedDB(t)

	assert.Contains(t, run(t, "--db", path, "cookies", "show"), "No saved cookies.")

	gdb, err := db.New(db.Options{FullPath: path, Prefix: config.NewConfig().Sqlite.Prefix})
	require.NoError(t, err)
	require.NoError(t, repo.NewPreferenceRepo(gdb).PutString(context.Background(), "CookiesPrefs", "CookiesKey", "sid=abc; theme=dark"))
	require.NoError(t, db.Close(gdb))

	out := run(t, "--db", path, "cookies", "show")
	assert.Contains(t, out, "sid=abc\n")
	assert.Contains(t, out, "theme=dark\n")

	assert.Contains(t, run(t, "--db", path, "cookies", "clear"), "Saved cookies cleared.")
	assert.Contains(t, run(t, "--db", path, "cookies", "show"), "No saved cookies.")
}

func TestHistory(t *testing.T) {
	path := seedDB(t)

	assert.Contains(t, run(t, "--db", path, "history"), "No navigation history found.")

	gdb, err := db.New(db.Options{FullPath: path, Prefix: config.NewConfig().Sqlite.Prefix})
	require.NoError(t, err)
	events := repo.NewEventRepo(gdb, logger.NewNop(), repo.EventRepoOptions{})
	events.Record("internal", "https://tandavcreation.com/orders", `{"requestId":"1"}`)
	events.Record("external", "https://maps.example.com/", `{"requestId":"2"}`)
	events.Stop()
	require.NoError(t, db.Close(gdb))

	out := run(t, "--db", path, "history")
	assert.Contains(t, out, "https://tandavcreation.com/orders")
	assert.Contains(t, out, "Showing 2 of 2 entries")

	out = run(t, "--db", path, "history", "--kind", "external")
	assert.Contains(t, out, "https://maps.example.com/")
	assert.NotContains(t, out, "/orders")

	assert.Contains(t, run(t, "--db", path, "history", "--clear"), "Navigation history cleared.")
	assert.Contains(t, run(t, "--db", path, "history"), "No navigation history found.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
