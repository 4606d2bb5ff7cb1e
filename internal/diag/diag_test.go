package diag

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestReporter() (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func TestReporter_CountsWarningsAndErrors(t *testing.T) {
	r, buf := newTestReporter()
	r.Warn("first")
	r.Warn("second")
	r.Error("third")

	require.Equal(t, 2, r.Warnings())
	require.Equal(t, 1, r.Errors())
	require.Contains(t, buf.String(), "first")
	require.Contains(t, buf.String(), "third")
}

func TestUnresolved_RecordsEachKeyOnce(t *testing.T) {
	r, _ := newTestReporter()
	require.True(t, r.Unresolved(":missing"))
	require.False(t, r.Unresolved(":missing"))
	require.True(t, r.Unresolved(":gone"))

	require.Equal(t, []string{":gone", ":missing"}, r.UnresolvedKeys())
}

func TestUnresolvedKeys_EmptyWhenNothingRecorded(t *testing.T) {
	r, _ := newTestReporter()
	require.Empty(t, r.UnresolvedKeys())
}
