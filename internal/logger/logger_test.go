package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel("info")
	})

	SetLevel("info")
	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")

	buf.Reset()
	SetLevel("debug")
	Debugf("now visible")
	assert.Contains(t, buf.String(), "now visible")

	buf.Reset()
	SetLevel("nonsense")
	Debugf("suppressed again")
	Warnf("warned")
	assert.NotContains(t, buf.String(), "suppressed again")
	assert.Contains(t, buf.String(), "warned")
}

func TestDumpModelExchange(t *testing.T) {
	var buf bytes.Buffer

	DumpModelExchange("before-writer", "p", "r")
	assert.Empty(t, buf.String())

	SetModelDumpWriter(&buf)
	t.Cleanup(func() { SetModelDumpWriter(nil) })

	DumpModelExchange("portfolio-decision", "the prompt", "the response")
	out := buf.String()
	assert.Contains(t, out, "portfolio-decision")
	assert.Contains(t, out, "--- prompt ---\nthe prompt")
	assert.Contains(t, out, "--- response ---\nthe response")
}
