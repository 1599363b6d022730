package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfoPrefersLinkerValues(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, BuildDate = v, c, d }(Version, Commit, BuildDate)
	Version, Commit, BuildDate = "v1.2.3", "abc123", "2024-01-01"

	info := GetInfo()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "2024-01-01", info.BuildDate)
	assert.NotEmpty(t, info.GoVersion)
}

func TestGetInfoFallbacks(t *testing.T) {
	info := GetInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.BuildDate)
}

func TestString(t *testing.T) {
	info := Info{Version: "v1", Commit: "abc", Modified: true, BuildDate: "today", GoVersion: "go1.24", Platform: "linux/amd64", StateVersion: 3}
	s := info.String()
	assert.Contains(t, s, "abc (modified)")
	assert.Contains(t, s, "State Schema:\tv3")

	info.StateVersion = 0
	assert.NotContains(t, info.String(), "State Schema")
}
