package cli

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/grovetools/widgetdeck/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestParseDescription(t *testing.T) {
	desc, examples := parseDescription("Shows state.\n\nExamples:\n  widgetdeck state show\n")
	assert.Equal(t, "Shows state.", desc)
	assert.Equal(t, "widgetdeck state show", examples)

	desc, examples = parseDescription("No examples here.")
	assert.Equal(t, "No examples here.", desc)
	assert.Empty(t, examples)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", wrapText("aaa bbb ccc", 7))
	assert.Equal(t, "short\nlines", wrapText("short\nlines", 7))
}

func TestStyledHelpListsCommands(t *testing.T) {
	root := NewStandardCommand("widgetdeck", "Widget dashboard state engine")
	root.AddCommand(&cobra.Command{Use: "state", Short: "Inspect persisted state", Run: func(*cobra.Command, []string) {}})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	assert.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "WIDGETDECK")
	assert.Contains(t, out.String(), "Inspect persisted state")
}

func TestGetOptions(t *testing.T) {
	root := NewStandardCommand("widgetdeck", "")
	assert.NoError(t, root.ParseFlags([]string{"--json", "-v", "--config", "x.yml"}))

	opts := GetOptions(root)
	assert.True(t, opts.JSONOutput)
	assert.True(t, opts.Verbose)
	assert.Equal(t, "x.yml", opts.ConfigFile)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", errors.NotFound("project", "p1"), `project "p1" not found`},
		{"storage", errors.StorageUnavailable("redis", stderrors.New("refused")), "redis"},
		{"decode", errors.StateDecode("app-state", stderrors.New("bad")), "widgetdeck state clear"},
		{"plain", stderrors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := NewErrorHandler(false, &out).Handle(tt.err)
			assert.Equal(t, tt.err, err)
			assert.Contains(t, out.String(), tt.want)
		})
	}

	assert.NoError(t, NewErrorHandler(true, &bytes.Buffer{}).Handle(nil))
}
