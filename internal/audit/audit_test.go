package audit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/igefined/quote-bridge/internal/audit"
)

func TestFileRecorder(t *testing.T) {
	t.Parallel()

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 9, 14, 5, 7, 0, time.Local))

	dir := filepath.Join(t.TempDir(), "Log")
	recorder, err := audit.Open(dir, clk)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2026-03-09-14-05-07.log"), recorder.Path())

	require.NoError(t, recorder.Record("checkTradeStatus\n", []byte(`"false"`)))
	clk.Add(2 * time.Second)
	require.NoError(t, recorder.Record("exit", []byte(`""`)))
	require.NoError(t, recorder.Close())

	data, err := os.ReadFile(recorder.Path())
	require.NoError(t, err)

	expected := "\n2026-03-09T14:05:07: checkTradeStatus\n\"false\"\n" +
		"\n2026-03-09T14:05:09: exit\"\"\n"
	require.Equal(t, expected, string(data))
}

func TestOpenFailsOnFilePath(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := audit.Open(filepath.Join(blocker, "Log"), clock.NewMock())
	require.ErrorContains(t, err, "create audit dir")
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	require.NoError(t, audit.Discard.Record("getStockList\n", []byte("[]")))
	require.NoError(t, audit.Discard.Close())
}
