package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortableHome(t *testing.T) {
	root := t.TempDir()
	t.Setenv("WIDGETDECK_HOME", root)

	assert.Equal(t, filepath.Join(root, "config"), ConfigDir())
	assert.Equal(t, filepath.Join(root, "state"), StateDir())
	assert.Equal(t, filepath.Join(root, "state", "logs"), LogDir())
	assert.NoError(t, EnsureDirs())
	assert.DirExists(t, filepath.Join(root, "cache"))
}

func TestXDGOverrides(t *testing.T) {
	t.Setenv("WIDGETDECK_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	assert.Equal(t, filepath.Join("/tmp/xdg-config", "widgetdeck"), ConfigDir())
	assert.Equal(t, filepath.Join("/tmp/xdg-state", "widgetdeck"), StateDir())
}
