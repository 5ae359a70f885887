package templates

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapview/internal/dom"
)

// copyEmbedded writes the embedded templates into a fresh directory.
func copyEmbedded(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := fs.WalkDir(embedded, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := embedded.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dir
}

func TestRenderer_Watch(t *testing.T) {
	dir := copyEmbedded(t)
	r := Must()

	stop, err := r.Watch(dir, nil)
	require.NoError(t, err)
	defer stop()

	s := dom.NewSurface("pointer", "readout", "pointer")
	s.Set("1, 2")

	pointer := filepath.Join(dir, "fragments", "pointer.html")
	require.NoError(t, os.WriteFile(pointer, []byte(`{{define "pointer"}}<p>{{.Data}}</p>{{end}}`), 0o644))
	assert.Eventually(t, func() bool {
		html, err := r.RenderSurface(s)
		return err == nil && html == "<p>1, 2</p>"
	}, 2*time.Second, 20*time.Millisecond)

	stop()
	stop()
}

func TestRenderer_Watch_missingDir(t *testing.T) {
	_, err := Must().Watch(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}
