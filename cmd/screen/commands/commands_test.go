package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/investor-screening/internal/common"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestCheckCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nJane Doe\n"), 0o600))
	t.Setenv("WATCHLIST_SOURCE", path)

	out, err := execute(t, "check", "jane", "doe")
	require.NoError(t, err)
	assert.Contains(t, out, "jane doe: Flagged")

	out, err = execute(t, "check", "Jane Do")
	require.NoError(t, err)
	assert.Contains(t, out, "Approved")
}

func TestCheckCommandUnavailableWatchlist(t *testing.T) {
	t.Setenv("WATCHLIST_SOURCE", filepath.Join(t.TempDir(), "missing.csv"))
	t.Setenv("WATCHLIST_UNAVAILABLE_POLICY", "fail")

	_, err := execute(t, "check", "Jane Doe")
	require.Error(t, err)
	assert.Equal(t, common.CodeWatchlistUnavailable, common.CodeOf(err))
}

func TestWatchlistCommands(t *testing.T) {
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "watchlist.db")
	t.Setenv("WATCHLIST_SOURCE", dsn)

	out, err := execute(t, "watchlist", "add", "Jane Doe", "John Roe")
	require.NoError(t, err)
	assert.Contains(t, out, "watchlist now holds 2 names")

	out, err = execute(t, "watchlist", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "2 entries")
	assert.Contains(t, out, "jane doe")
	assert.Contains(t, out, "john roe")

	out, err = execute(t, "check", "  JOHN ROE ")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Flagged"), out)
}

func TestWatchlistAddRequiresSQL(t *testing.T) {
	t.Setenv("WATCHLIST_SOURCE", "./watchlist.csv")
	_, err := execute(t, "watchlist", "add", "Jane Doe")
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "nope")
	_, err := execute(t, "run", "deal.pdf")
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}
