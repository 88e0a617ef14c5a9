package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("configured binary", func(t *testing.T) {
		t.Parallel()

		bin := filepath.Join(t.TempDir(), "chromium")
		require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

		got, err := Lookup(Config{Bin: bin})
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("missing configured binary", func(t *testing.T) {
		t.Parallel()

		_, err := Lookup(Config{Bin: filepath.Join(t.TempDir(), "nope")})
		assert.Error(t, err)
	})
}
