package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Console(t *testing.T) {
	l, err := New(Options{Verbose: true})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNew_JSON(t *testing.T) {
	l, err := New(Options{JSON: true})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
