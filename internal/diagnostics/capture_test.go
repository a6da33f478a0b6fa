package diagnostics

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCaptureWritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()

	paths, err := Capture(dir, "fatal-drift-page-2", "<html></html>", []byte{0x89, 0x50})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.True(t, strings.HasSuffix(paths[0], ".html"))
	require.True(t, strings.HasSuffix(paths[1], ".png"))

	for _, p := range paths {
		_, err := os.Stat(p)
		require.NoError(t, err)
	}
}

func TestCaptureSkipsEmptyInputs(t *testing.T) {
	dir := t.TempDir()

	paths, err := Capture(dir, "zero-records", "", nil)
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestSafeTimestampHasNoReservedCharacters(t *testing.T) {
	s := safeTimestamp(time.Date(2024, 3, 5, 13, 14, 15, 0, time.UTC))
	require.NotContains(t, s, ":")
	require.NotContains(t, s, ".")
	require.Equal(t, "2024-03-05T13-14-15Z", s)
}
