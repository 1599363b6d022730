package profiling

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledProfilerRecordsNothing(t *testing.T) {
	p := &Profiler{}
	p.Start("load").Stop()

	var out bytes.Buffer
	p.Summarize(&out)
	assert.Empty(t, out.String())
}

func TestNestedSpans(t *testing.T) {
	p := &Profiler{}
	p.Enable()

	outer := p.Start("engine")
	p.Start("load").Stop()
	p.Start("decode").Stop()
	outer.Stop()
	p.Start("save").Stop()

	var out bytes.Buffer
	p.Summarize(&out)
	s := out.String()
	assert.Contains(t, s, "- engine (")
	assert.Contains(t, s, "  - load (")
	assert.Contains(t, s, "  - decode (")
	assert.Contains(t, s, "\n- save (")
}
