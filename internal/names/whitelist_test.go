package names

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWhitelist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	require.NoError(t, os.WriteFile(path, []byte(`["The", "Resting", "OClock"]`), 0o644))

	w, err := LoadWhitelist(path)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())

	assert.True(t, w.Contains("the"))
	assert.True(t, w.Contains("resting"))
	// A punctuated token still hits its stripped form
	assert.True(t, w.Contains("o'clock"))
	assert.False(t, w.Contains("smith"))
}

func TestLoadWhitelistErrors(t *testing.T) {
	_, err := LoadWhitelist(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))
	_, err = LoadWhitelist(path)
	require.Error(t, err)
}
