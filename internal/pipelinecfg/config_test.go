package pipelinecfg

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesStackWindow(t *testing.T) {
	cfg := Default()
	require.Equal(t, 16, cfg.K)
	require.Equal(t, 1.0, cfg.LoopBias)
	require.False(t, cfg.EmitTrace)
}

func TestRegisterFlagsOverridesDefaults(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{"-k=8", "-loop-bias=2.5", "-trace"}))
	require.Equal(t, 8, cfg.K)
	require.Equal(t, 2.5, cfg.LoopBias)
	require.True(t, cfg.EmitTrace)
}
