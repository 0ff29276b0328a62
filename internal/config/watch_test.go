package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWeights(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWeightsWatcher(t *testing.T) {
	t.Run("initial load and subscribe", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.yaml")
		writeWeights(t, path, "insider_weight: 0.4\nnews_weight: 0.6\n")

		w, err := NewWeightsWatcher(path)
		require.NoError(t, err)
		defer w.watcher.Close()

		assert.Equal(t, 0.4, w.Current().InsiderWeight)

		var got SentimentWeightsFile
		w.Subscribe(func(f SentimentWeightsFile) { got = f })
		assert.Equal(t, 0.6, got.NewsWeight, "subscription delivers current weights immediately")
	})

	t.Run("reload picks up new weights and notifies", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.yaml")
		writeWeights(t, path, "insider_weight: 0.3\nnews_weight: 0.7\n")

		w, err := NewWeightsWatcher(path)
		require.NoError(t, err)
		defer w.watcher.Close()

		var updates []SentimentWeightsFile
		w.Subscribe(func(f SentimentWeightsFile) { updates = append(updates, f) })

		writeWeights(t, path, "insider_weight: 0.9\nnews_weight: 0.1\n")
		w.reload()

		assert.Equal(t, 0.9, w.Current().InsiderWeight)
		require.Len(t, updates, 2)
		assert.Equal(t, 0.9, updates[1].InsiderWeight)
	})

	t.Run("malformed update keeps the last good weights", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "weights.yaml")
		writeWeights(t, path, "insider_weight: 0.3\nnews_weight: 0.7\n")

		w, err := NewWeightsWatcher(path)
		require.NoError(t, err)
		defer w.watcher.Close()

		writeWeights(t, path, "insider_weight: [not a number\n")
		w.reload()
		assert.Equal(t, 0.3, w.Current().InsiderWeight)

		writeWeights(t, path, "insider_weight: -1\nnews_weight: 0.5\n")
		w.reload()
		assert.Equal(t, 0.3, w.Current().InsiderWeight)
	})

	t.Run("missing file rejected at construction", func(t *testing.T) {
		_, err := NewWeightsWatcher(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("empty path rejected", func(t *testing.T) {
		_, err := NewWeightsWatcher("")
		require.Error(t, err)
	})
}

func TestReadWeightsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")

	t.Run("zero sum rejected", func(t *testing.T) {
		writeWeights(t, path, "insider_weight: 0\nnews_weight: 0\n")
		_, err := readWeightsFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot both be zero")
	})

	t.Run("negative rejected", func(t *testing.T) {
		writeWeights(t, path, "insider_weight: -0.5\nnews_weight: 1.5\n")
		_, err := readWeightsFile(path)
		require.Error(t, err)
	})
}
