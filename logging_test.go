package physics2d

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "physics", false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Infof("step %d", 7)
	assert.Contains(t, buf.String(), "step 7")
	assert.Contains(t, buf.String(), "physics")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("visible %d", 2)
	assert.Contains(t, buf.String(), "visible 2")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Errorf("dropped")
}
