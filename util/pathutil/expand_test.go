package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("WIDGETDECK_TEST_DIR", "/tmp/deck")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/state", filepath.Join(home, "state")},
		{"$WIDGETDECK_TEST_DIR/db", "/tmp/deck/db"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		got, err := Expand(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	rel, err := Expand("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel))
}
