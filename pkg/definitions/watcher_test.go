package definitions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statistics.yaml")
	writeManifest(t, path, testManifest)

	loaded := make(chan *Manifest, 4)
	log := logrus.New()
	log.SetOutput(os.Stderr)

	w, err := NewWatcher(path, func(m *Manifest) { loaded <- m }, log)
	require.NoError(t, err)
	defer w.Close()

	writeManifest(t, path, testManifest+`
  - name: amount_max
    kind: max
    column: amount
    scopes: [visible]
`)

	select {
	case manifest := <-loaded:
		assert.Len(t, manifest.Statistics, 4)
		assert.Equal(t, "amount_max", manifest.Statistics[3].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after the manifest changed")
	}
}

func TestWatcher_KeepsStateOnBadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statistics.yaml")
	writeManifest(t, path, testManifest)

	loaded := make(chan *Manifest, 4)
	w, err := NewWatcher(path, func(m *Manifest) { loaded <- m }, nil)
	require.NoError(t, err)
	defer w.Close()

	// A manifest that fails validation must not reach the callback.
	writeManifest(t, path, "model: {}\n")

	select {
	case m := <-loaded:
		t.Fatalf("expected no reload for an invalid manifest, got %+v", m)
	case <-time.After(500 * time.Millisecond):
	}

	// A later good write recovers.
	writeManifest(t, path, testManifest)
	select {
	case manifest := <-loaded:
		assert.Len(t, manifest.Statistics, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after the manifest was fixed")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statistics.yaml")
	writeManifest(t, path, testManifest)

	loaded := make(chan *Manifest, 4)
	w, err := NewWatcher(path, func(m *Manifest) { loaded <- m }, nil)
	require.NoError(t, err)
	defer w.Close()

	writeManifest(t, filepath.Join(dir, "unrelated.yaml"), "{}")

	select {
	case <-loaded:
		t.Fatal("expected no reload for unrelated files")
	case <-time.After(500 * time.Millisecond):
	}
}
